package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"furitingoasis/irrigation/config"
	"furitingoasis/irrigation/website/internal/models"

	"github.com/gin-gonic/gin"
)

// maxChartPoints caps /api/sensor_data so the chart stays readable.
const maxChartPoints = 200

// chartPoint is one sample on the history chart.
type chartPoint struct {
	Timestamp    string  `json:"timestamp"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	SoilMoisture int     `json:"soil_moisture"`
}

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.SiteAddr, "HTTP network address")
	dsn := flag.String("dsn", cfg.DSN, "SQLite database file path")
	flag.Parse()

	db, err := models.OpenDB(*dsn)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	if err := models.Migrate(db); err != nil {
		log.Fatalf("Error preparing database: %v", err)
	}

	router := newRouter(&models.SensorReadingModel{DB: db}, &models.WateringModel{DB: db})
	router.Use(gin.Recovery())

	log.Printf("History server listening on %s", *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatal(err)
	}
}

func newRouter(readings models.SensorReadingModelInterface, watering models.WateringModelInterface) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// At most maxChartPoints readings, evenly spread over the whole history.
	router.GET("/api/sensor_data", func(c *gin.Context) {
		sampled, err := readings.Sampled(maxChartPoints)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		points := make([]chartPoint, 0, len(sampled))
		for _, r := range sampled {
			points = append(points, chartPoint{
				Timestamp:    r.Timestamp.Format("02:01:2006 15:04:05"),
				Temperature:  r.Temperature,
				Humidity:     r.Humidity,
				SoilMoisture: r.SoilMoisture,
			})
		}
		c.JSON(http.StatusOK, points)
	})

	router.GET("/api/watering", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}

		events, err := watering.Recent(min(limit, 500))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if events == nil {
			events = []models.WateringEvent{}
		}
		c.JSON(http.StatusOK, events)
	})

	return router
}
