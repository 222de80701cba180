package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"webpilot/internal/di"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	goals := os.Args[1:]
	if len(goals) == 0 {
		fmt.Println("\nEnter a task for the agent:")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatal("failed to read input: ", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			log.Fatal("empty task")
		}
		goals = []string{line}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	maxSteps := envService.GetInt("MAX_STEPS", entity.DefaultMaxSteps)

	container, err := di.NewContainer(ctx, di.Config{
		OpenRouterAPIKey:   envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:    envService.MustGet("OPENROUTER_MODEL_NAME"),
		OpenRouterBaseURL:  envService.Get("OPENROUTER_BASE_URL"),
		BrowserHeadless:    envService.GetBool("BROWSER_HEADLESS", true),
		CaptureScreenshots: envService.GetBool("CAPTURE_SCREENSHOTS", false),
		PlannerTimeout:     envService.GetDuration("PLANNER_TIMEOUT_SECONDS", 120*time.Second),
		ExecutorTimeout:    envService.GetDuration("EXECUTOR_TIMEOUT_SECONDS", 30*time.Second),
		JudgeConfirm:       envService.GetBool("JUDGE_CONFIRM", false),
		ConcurrentSessions: envService.GetInt("CONCURRENT_SESSIONS", 2),
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	tasks := make([]entity.Task, len(goals))
	for i, goal := range goals {
		tasks[i] = entity.NewTask(goal, maxSteps)
	}

	container.Logger.Info("Run started", "tasks", len(tasks))
	fmt.Println("\nAgent started...")

	reports, err := container.Manager.RunAll(ctx, tasks)
	if err != nil {
		container.Logger.Error("Run failed", "error", err)
		fmt.Printf("\nExecution error: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	for _, report := range reports {
		fmt.Printf("\n=== %s ===\n", report.Goal)
		fmt.Printf("Status: %s (%d steps)\n", report.Status, report.Steps)
		switch report.Status {
		case entity.StatusSucceeded:
			fmt.Println("Result:")
			fmt.Println(report.Result)
		default:
			fmt.Printf("Reason: %s\n", report.Reason)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
