package main

import (
	"yeyak/internal/reservations/handler"
	"yeyak/internal/reservations/holiday"
	"yeyak/internal/reservations/repository"
	"yeyak/internal/reservations/service"
	"yeyak/internal/reservations/validator"
	"yeyak/pkg/app"
	"yeyak/pkg/config"
	"yeyak/pkg/kafka"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReservationService {
	store, err := repository.NewStore(cfg.DataDir, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to open reservation store", "data_dir", cfg.DataDir, "error", err)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create audit producer", "error", err)
		}
		store.SetMirror(producer)
		cfg.Log.Info("Audit mirror enabled", "topic", cfg.KafkaAuditTopic)
	}

	bookingValidator := validator.NewBookingValidator(cfg, holiday.NewKorea(), cfg.Log)
	reservationService := service.NewReservationService(store, bookingValidator, cfg.Log)

	cfg.Log.Info("Reservation service initialized", "data_dir", cfg.DataDir)
	return reservationService
}
