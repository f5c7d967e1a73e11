// Package server is the embedded development backend. It serves the same
// endpoints as the production EcoPoints API from in-memory state, and it
// deliberately answers in the heterogeneous envelope shapes and field
// spellings observed across real backend iterations (bare arrays, {data},
// HAL _embedded, activityId/occurredAt naming), so the client's normalizer
// is exercised for real even in local development.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type contextKey string

// userIDKey carries the authenticated user id through the request context.
const userIDKey contextKey = "userID"

func jwtMiddleware(signingKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			splitToken := strings.Split(authHeader, "Bearer ")
			if len(splitToken) == 2 {
				token, err := jwt.Parse(splitToken[1], func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
					}
					return []byte(signingKey), nil
				})
				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if id, ok := claims["id"].(string); ok {
							ctx := context.WithValue(r.Context(), userIDKey, id)
							r = r.WithContext(ctx)
						}
					}
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %s\n", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Router builds the full API router over a fresh seeded store. Exposed
// separately from Start so tests can mount it on httptest servers.
func Router(signingKey string) http.Handler {
	s := newStore(signingKey)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	api.HandleFunc("/auth/oauth/{provider}", s.handleOAuthExchange).Methods("POST")
	api.HandleFunc("/auth/me", s.handleProfile).Methods("GET")
	api.HandleFunc("/user/profile", s.handleProfile).Methods("GET")
	api.HandleFunc("/auth", s.handleListUsers).Methods("GET")
	api.HandleFunc("/auth/update/{id}", s.handleUpdateUser).Methods("PUT")
	api.HandleFunc("/auth/delete/{id}", s.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/auth/{id}", s.handleGetUser).Methods("GET")

	api.HandleFunc("/activities", s.handleListActivityTypes).Methods("GET")
	api.HandleFunc("/activities", s.handleCreateActivityType).Methods("POST")
	api.HandleFunc("/activities/{id}", s.handleGetActivityType).Methods("GET")
	api.HandleFunc("/activities/{id}", s.handleUpdateActivityType).Methods("PUT")
	api.HandleFunc("/activities/{id}", s.handleDeleteActivityType).Methods("DELETE")

	api.HandleFunc("/activity-logs", s.handleListActivityLogs).Methods("GET")
	api.HandleFunc("/activity-logs", s.handleCreateActivityLog).Methods("POST")
	api.HandleFunc("/activity-logs/user/{id}", s.handleListUserActivityLogs).Methods("GET")
	api.HandleFunc("/activity-logs/{id}", s.handleDeleteActivityLog).Methods("DELETE")

	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods("GET")
	api.HandleFunc("/challenges", s.handleChallenges).Methods("GET")
	api.HandleFunc("/challenges/user/{id}", s.handleUserChallenges).Methods("GET")

	// /user/stats is intentionally absent, like the deployed backend; the
	// client synthesizes stats from activity logs on the resulting 404.
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("EcoPoints dev backend running"))
	}).Methods("GET")

	return recoveryMiddleware(jwtMiddleware(signingKey, r))
}

// Start runs the dev backend on addr until the process exits.
func Start(addr, signingKey string) {
	corsOrigins := handlers.AllowedOrigins([]string{"*"})
	corsMethods := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"})
	corsHeaders := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})

	corsRouter := handlers.CORS(corsOrigins, corsMethods, corsHeaders)(Router(signingKey))
	loggingRouter := handlers.LoggingHandler(os.Stdout, corsRouter)

	server := &http.Server{
		Handler:      loggingRouter,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}
