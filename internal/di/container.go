package di

import (
	"context"
	"fmt"
	"time"

	"webpilot/internal/application/port/input"
	"webpilot/internal/application/port/output"
	"webpilot/internal/application/service"
	"webpilot/internal/application/usecase"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/browser/rod"
	"webpilot/internal/infrastructure/judge"
	"webpilot/internal/infrastructure/llm/openrouter"
	"webpilot/internal/infrastructure/logger"
	"webpilot/internal/infrastructure/planner"

	"github.com/google/uuid"
)

type Config struct {
	OpenRouterAPIKey   string
	OpenRouterModel    string
	OpenRouterBaseURL  string
	BrowserHeadless    bool
	CaptureScreenshots bool
	PlannerTimeout     time.Duration
	ExecutorTimeout    time.Duration
	JudgeConfirm       bool
	ConcurrentSessions int
}

type Container struct {
	Logger  output.LoggerPort
	LLM     output.LLMPort
	Judge   output.JudgePort
	Manager *service.SessionManager

	cfg Config
}

// NewContainer wires the process-wide collaborators. Configuration is read
// once and carried as a value; per-session state (browser, executor,
// history) is built fresh inside the runner factory so concurrent sessions
// never share a browser context.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter("agent")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if cfg.OpenRouterBaseURL != "" {
		llmCfg.BaseURL = cfg.OpenRouterBaseURL
	}
	llmCfg.Logger = log
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	var j output.JudgePort
	if cfg.JudgeConfirm {
		j = judge.NewWithConfirmation(llm, log)
	} else {
		j = judge.New(log)
	}

	c := &Container{
		Logger: log,
		LLM:    llm,
		Judge:  j,
		cfg:    cfg,
	}
	c.Manager = service.NewSessionManager(c.newRunner, log, cfg.ConcurrentSessions)
	return c, nil
}

func (c *Container) newRunner(ctx context.Context, task entity.Task) (input.SessionRunner, func(), error) {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = c.cfg.BrowserHeadless
	browserCfg.CaptureScreenshots = c.cfg.CaptureScreenshots

	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser: %w", err)
	}

	id := uuid.NewString()
	sessionLogger := c.Logger.WithField("session", id)

	runner := usecase.NewRunSessionUseCase(id, task, usecase.Deps{
		Extractor: browser,
		Planner:   planner.New(c.LLM, sessionLogger),
		Executor:  service.NewExecutor(browser, sessionLogger, c.cfg.ExecutorTimeout),
		Judge:     c.Judge,
		Logger:    sessionLogger,
	}, usecase.Config{
		PlannerTimeout: c.cfg.PlannerTimeout,
	})

	return runner, browser.Close, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
