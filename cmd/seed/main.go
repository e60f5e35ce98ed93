// Command seed populates the reservation data directory with deterministic
// demo data.
//
// Usage:
//
//	seed -mode standard
//	seed -mode large -days 30 -slots 4
//	seed -mode resource -resource 회의실3
package main

import (
	"flag"
	"time"

	"yeyak/internal/reservations/holiday"
	"yeyak/internal/reservations/repository"
	"yeyak/internal/reservations/seed"
	"yeyak/internal/reservations/service"
	"yeyak/internal/reservations/validator"
	"yeyak/pkg/config"
	"yeyak/pkg/model"
)

const ServiceName = "seed"

func main() {
	mode := flag.String("mode", "standard", "data set to generate: standard, large, or resource")
	days := flag.Int("days", 30, "window size in days (large mode)")
	slots := flag.Int("slots", 4, "slots per day factor (large mode)")
	resource := flag.String("resource", "", "resource name (resource mode)")
	keep := flag.Bool("keep", false, "keep existing records instead of overwriting")
	flag.Parse()

	cfg := config.Load(ServiceName)
	log := cfg.Log

	store, err := repository.NewStore(cfg.DataDir, log)
	if err != nil {
		log.Fatal("Failed to open reservation store", "data_dir", cfg.DataDir, "error", err)
	}

	calendar := holiday.NewKorea()
	reservationService := service.NewReservationService(
		store,
		validator.NewBookingValidator(cfg, calendar, log),
		log,
	)

	now := time.Now()
	var records []model.ReservationRecord
	var eventType string
	meta := map[string]any{"mode": *mode}

	switch *mode {
	case "standard":
		records, err = seed.Standard(now, calendar)
		eventType = model.EventTestDataGenerated
	case "large":
		records, err = seed.Large(now, calendar, *days, *slots)
		eventType = model.EventTestDataGeneratedLarge
		meta["days"] = *days
		meta["slots_per_day"] = *slots
	case "resource":
		records, err = seed.SpecificResource(*resource, now, calendar)
		eventType = model.EventTestDataGeneratedSpecific
		meta["resource"] = *resource
	default:
		log.Fatal("Unknown mode", "mode", *mode)
	}
	if err != nil {
		log.Fatal("Failed to generate records", "mode", *mode, "error", err)
	}

	count, err := reservationService.Seed(records, !*keep, eventType, meta, now)
	if err != nil {
		log.Fatal("Failed to persist records", "error", err)
	}

	log.Info("Seed data written", "mode", *mode, "count", count, "data_dir", cfg.DataDir)
}
