package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router on the standard http.ServeMux. Every request passes through
// request id, access log and panic recovery.
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	logger  *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	mux := http.NewServeMux()
	return &Router{
		mux:     mux,
		handler: Chain(mux, RequestID(), RequestLogger(logger), RecoverPanic(logger)),
		logger:  logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// RegisterGrowthRoutes children, measurements, diagnosis and health routes
func (r *Router) RegisterGrowthRoutes(children *ChildrenHandler, measurements *MeasurementsHandler, diagnosis *DiagnosisHandler) {
	r.Handle("/health", diagnosis.Health)
	r.Handle("/database/status", diagnosis.DatabaseStatus)

	r.HandleHandler(childrenPath, children)
	r.HandleHandler(childrenPath+"/", children)

	r.HandleHandler(measurementsPath, measurements)
	r.HandleHandler(measurementsPath+"/", measurements)

	r.HandleHandler(diagnosisPath+"/", diagnosis)
}
