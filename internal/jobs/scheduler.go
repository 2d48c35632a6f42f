package jobs

import (
	"database/sql"
	"fmt"
	"log"

	"SalesScope/internal/logger"
	"SalesScope/internal/serviceiface"
)

type CronService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewCronService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	janitorConfig := NewDefaultJanitorConfig()
	if s.config != nil {
		if schedule, ok := s.config["janitor_schedule"].(string); ok && schedule != "" {
			janitorConfig.Schedule = schedule
		}
	}

	if err := RunHistoryJanitor(janitorConfig, s.db); err != nil {
		return fmt.Errorf("failed to start history janitor: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with history janitor")
	}
	log.Println("Cron service started, history janitor scheduled")
	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
