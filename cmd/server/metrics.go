package main

import (
	"context"
	"log"
	"time"

	"github.com/nadmax/storepulse/internal/metrics"
	"github.com/nadmax/storepulse/internal/registry"
)

func startJobMetricsCollector(reg *registry.Registry) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		updateJobMetrics(reg)
	}
}

func updateJobMetrics(reg *registry.Registry) {
	jobs, err := reg.All(context.Background())
	if err != nil {
		log.Printf("Failed to get jobs for metrics: %v", err)
		return
	}

	jobsByStatus := make(map[string]int)
	for _, job := range jobs {
		jobsByStatus[string(job.Status)]++
	}

	metrics.UpdateJobGauges(jobsByStatus)
}
