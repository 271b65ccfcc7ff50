package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", ping)
	mux.Handle("GET /metrics", app.metrics.handler())

	mux.HandleFunc("GET /api/readings", app.recentReadings)
	mux.HandleFunc("GET /api/latest", app.latest)
	mux.HandleFunc("GET /api/evaluate", app.evaluate)
	mux.HandleFunc("GET /api/watering", app.wateringLog)

	dynamic := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.authenticate)
	mux.Handle("GET /{$}", dynamic.ThenFunc(app.home))
	mux.Handle("GET /user/csrf", dynamic.ThenFunc(app.csrfToken))
	mux.Handle("POST /user/login", dynamic.ThenFunc(app.userLoginPost))

	protected := dynamic.Append(app.requireAuthentication)
	mux.Handle("POST /user/logout", protected.ThenFunc(app.userLogoutPost))
	mux.Handle("POST /api/water/run", protected.ThenFunc(app.waterRun))
	mux.Handle("POST /api/water/activate", protected.ThenFunc(app.waterActivate))

	standard := alice.New(app.recoverPanic, app.logRequest, app.securityHeaders, app.enableCORS)
	return standard.Then(mux)
}
