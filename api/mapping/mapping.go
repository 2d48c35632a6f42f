package mapping

import (
	"database/sql"
	"log"
	"net/http"
)

func StartMappingService(db *sql.DB) {
	mux := http.NewServeMux()

	mux.HandleFunc("/mapping/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Mapping Service is active"))
	})

	mux.Handle("/mapping/columns", ColumnMappingHandler(db))
	mux.Handle("/mapping/items", UpsertItemsHandler(db, "item_mapping"))
	mux.Handle("/mapping/items/master", UpsertItemsHandler(db, "item_master"))
	mux.Handle("/mapping/items/process", ProcessItemFileHandler(db))
	mux.Handle("/mapping/rates", ExchangeRatesHandler(db))
	mux.Handle("/mapping/rates/process", ProcessRateFileHandler(db))

	log.Println("Mapping Service started on :9243")
	err := http.ListenAndServe(":9243", mux)
	if err != nil {
		log.Fatalf("Mapping Service failed: %v", err)
	}
}
