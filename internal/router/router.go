package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "pet-adoption-market/internal/adapters/storage/memory"
	pg "pet-adoption-market/internal/adapters/storage/postgres"
	"pet-adoption-market/internal/domain/adoptions"
	"pet-adoption-market/internal/domain/history"
	"pet-adoption-market/internal/domain/pets"
	"pet-adoption-market/internal/domain/users"
	"pet-adoption-market/internal/middleware"
	"pet-adoption-market/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev, headers X-Debug-*)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: logger para el access log. nil = zap.L().
	Logger *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	log := opts.Logger
	if log == nil {
		log = zap.L()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		petRepo   pets.Repository
		adoptRepo adoptions.Repository
		userRepo  users.Repository
		histRepo  history.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		adoptRepo = pg.NewAdoptionsRepo(db)
		userRepo = pg.NewUsersRepo(db)
		histRepo = pg.NewHistoryRepo(db)
	} else {
		// Un solo Store compartido: las escrituras compuestas (create de
		// solicitud, approve, retiro de publicación) necesitan ver las
		// cuatro colecciones bajo el mismo lock.
		store := mem.NewStore()
		petRepo = store.Pets()
		adoptRepo = store.Adoptions()
		userRepo = store.Users()
		histRepo = store.History()
	}

	// Services por módulo. pets y adoptions se referencian mutuamente
	// (guard de retiro / gate de apply), así que pets se construye
	// primero y recibe el contador por BindActiveCounter.
	histSvc := history.NewService(histRepo)
	petsSvc := pets.NewService(petRepo, nil)
	adoptSvc := adoptions.NewService(adoptRepo, petsSvc, histSvc)
	petsSvc.BindActiveCounter(adoptSvc)
	usersSvc := users.NewService(userRepo, petsSvc, adoptSvc)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, adoptSvc, usersSvc)
	adoptions.RegisterRoutes(r, adoptSvc, petsSvc, histSvc)
	users.RegisterRoutes(r, usersSvc)

	return r
}
