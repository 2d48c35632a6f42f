package mapping

import (
	"database/sql"

	"SalesScope/internal/serviceiface"
)

type MappingService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewMappingService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &MappingService{config: cfg, db: db}
}

func (s *MappingService) Name() string {
	return "mapping"
}

func (s *MappingService) Start() error {
	go StartMappingService(s.db)
	return nil
}

func (s *MappingService) Stop() error {
	return nil
}
