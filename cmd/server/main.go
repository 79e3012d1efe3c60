package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/worksheet-gen/backend/internal/database"
	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/render"
	"github.com/worksheet-gen/backend/internal/worksheets"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	store := worksheets.NewStore(db)
	gen := generator.NewGenerator()
	renderer := render.NewRenderer()
	service := worksheets.NewService(store, gen, renderer)
	handler := worksheets.NewHandler(service)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Score batches
	api.HandleFunc("/scores", handler.UploadScores).Methods("POST")
	api.HandleFunc("/scores/batches", handler.ListBatches).Methods("GET")
	api.HandleFunc("/scores/batches/{id}", handler.GetBatch).Methods("GET")
	api.HandleFunc("/scores/batches/{id}/records", handler.ListBatchRecords).Methods("GET")

	// Reference bank
	api.HandleFunc("/reference", handler.UploadReference).Methods("POST")
	api.HandleFunc("/reference", handler.GetReferenceStatus).Methods("GET")

	// Worksheets
	api.HandleFunc("/worksheets/generate", handler.GenerateWorksheets).Methods("POST")
	api.HandleFunc("/worksheets", handler.ListWorksheets).Methods("GET")
	api.HandleFunc("/worksheets/{id}", handler.GetWorksheet).Methods("GET")
	api.HandleFunc("/worksheets/{id}/document", handler.GetWorksheetDocument).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
