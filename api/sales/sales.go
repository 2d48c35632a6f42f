package sales

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"SalesScope/api/sales/upload"
)

func StartSalesService(db *sql.DB, pool *pgxpool.Pool) {
	mux := http.NewServeMux()

	mux.HandleFunc("/sales/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Sales Service is active"))
	})

	mux.Handle("/sales/upload", upload.UploadSalesHandler(db, pool))
	mux.Handle("/sales/upload/process", upload.ProcessUploadHandler(db, pool))
	mux.Handle("/sales/upload/history", historyRouter(db))

	mux.Handle("/sales/entities", EntitiesHandler(db))
	mux.Handle("/sales/years", YearsHandler(db))
	mux.Handle("/sales/summary", SummaryHandler(db))
	mux.Handle("/sales/breakdown", BreakdownHandler(db))
	mux.Handle("/sales/export", ExportHandler(db))

	log.Println("Sales Service started on :9143")
	err := http.ListenAndServe(":9143", mux)
	if err != nil {
		log.Fatalf("Sales Service failed: %v", err)
	}
}

// historyRouter splits the history endpoint by method: GET lists, DELETE
// removes a row plus its stored file.
func historyRouter(db *sql.DB) http.Handler {
	list := upload.ListHistoryHandler(db)
	del := upload.DeleteHistoryHandler(db)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			del.ServeHTTP(w, r)
			return
		}
		list.ServeHTTP(w, r)
	})
}
