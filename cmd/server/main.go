// @title           Resource Platform API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"
	"platforma-zasobow/internal/api"
	"platforma-zasobow/internal/auth"
	"platforma-zasobow/internal/config"
	"platforma-zasobow/internal/database"
	"platforma-zasobow/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Nie można wczytać konfiguracji: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Nie można połączyć się z bazą danych: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Nie można pingować bazy danych: %v", err)
	}
	log.Println("Pomyślnie połączono z bazą danych")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool, wsHub)

	if err := ensureAdminAccount(context.Background(), store, cfg); err != nil {
		log.Fatalf("Nie można utworzyć konta administratora: %v", err)
	}

	server := api.NewServer(cfg, store, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(api.MetricsMiddleware)

	r.Get("/ws", server.ServeWsHandler)

	r.Post("/api/v1/auth/login", server.LoginHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Post("/auth/logout", server.LogoutHandler)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Get("/users", server.ListUsersHandler)
		r.Post("/users", server.CreateUserHandler)
		r.Get("/users/{userId}", server.GetUserHandler)
		r.Delete("/users/{userId}", server.DeleteUserHandler)
		r.Put("/users/{userId}/quota", server.SetQuotaHandler)
		r.Get("/users/{userId}/resources", server.ListUserResourcesHandler)
		r.Post("/users/{userId}/resources", server.CreateResourceHandler)
		r.Delete("/users/{userId}/resources", server.DeleteResourceHandler)
		r.Get("/resources", server.ListAllResourcesHandler)
		r.Get("/events", server.GetEventsHandler)
	})

	log.Println("Uruchamianie serwera na porcie :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatalf("Nie można uruchomić serwera: %v", err)
	}
}

// ensureAdminAccount creates the configured platform admin when it does not
// exist yet. Only admins can register users, so a fresh install needs one.
func ensureAdminAccount(ctx context.Context, store *database.PostgresStore, cfg *config.Config) error {
	if cfg.Admin.Email == "" {
		log.Println("Brak konfiguracji administratora, pomijam bootstrap")
		return nil
	}

	existing, err := store.GetUserByEmail(ctx, cfg.Admin.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	passwordHash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	_, err = store.CreateUser(ctx, database.CreateUserParams{
		Email:         cfg.Admin.Email,
		PasswordHash:  passwordHash,
		PlatformAdmin: true,
	})
	if err != nil {
		return err
	}

	log.Printf("Utworzono konto administratora: %s", cfg.Admin.Email)
	return nil
}
