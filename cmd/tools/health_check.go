package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Simple health check utility for the switching service.

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base address of the service")
	flag.Parse()

	fmt.Println("everything-switching Health Check Utility")
	fmt.Println("-----------------------------------------")

	healthy, err := checkServiceHealth(*addr + "/health")
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	if healthy {
		fmt.Println("Service is healthy!")
	} else {
		fmt.Println("Service is NOT healthy!")
	}
}

func checkServiceHealth(url string) (bool, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Status == "ok", nil
}
