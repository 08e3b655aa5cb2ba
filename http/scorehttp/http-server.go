package scorehttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/scoreboard/auth"
	"github.com/programme-lv/scoreboard/httpjson"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
)

type HttpServer struct {
	scoreSrvc     *scoresrvc.ScoreSrvc
	gradingApiKey string
	router        *chi.Mux
}

func NewHttpServer(
	scoreSrvc *scoresrvc.ScoreSrvc,
	jwtKey []byte,
	gradingApiKey string,
) *HttpServer {
	router := chi.NewRouter()

	logger := httplog.NewLogger("scoreboard", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
	})

	router.Use(httplog.RequestLogger(logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://programme.lv", "https://www.programme.lv"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	router.Use(auth.GetJwtAuthMiddleware(jwtKey))

	server := &HttpServer{
		scoreSrvc:     scoreSrvc,
		gradingApiKey: gradingApiKey,
		router:        router,
	}

	server.routes()

	return server
}

func (httpserver *HttpServer) Start(address string) error {
	return http.ListenAndServe(address, httpserver.router)
}

func (httpserver *HttpServer) Handler() http.Handler {
	return httpserver.router
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Get("/scores/{participationId}/{taskId}", httpserver.getScoreEntry)
	r.Get("/scores/{participationId}/{taskId}/history", httpserver.getScoreHistory)
	r.Post("/scores/{participationId}/{taskId}/rebuild", httpserver.rebuildScore)
	r.Post("/scores/invalidate", httpserver.invalidateScores)
	r.Post("/graded", httpserver.receiveGraded)
}

// requireAdmin writes a 403 and returns false unless the request carries a
// JWT with the admin scope.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || !claims.HasScope(auth.ScopeAdmin) {
		httpjson.WriteError(w, "Nepietiekamas piekļuves tiesības",
			http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
