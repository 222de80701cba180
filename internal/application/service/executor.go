package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"
)

const maxExtractLen = 20000

// Executor translates one planned action into browser commands and maps
// the result onto the failure taxonomy. After a finish action it latches
// and accepts nothing further.
type Executor struct {
	browser  output.BrowserPort
	logger   output.LoggerPort
	timeout  time.Duration
	finished bool
}

var _ output.ActionExecutor = (*Executor)(nil)

func NewExecutor(browser output.BrowserPort, logger output.LoggerPort, timeout time.Duration) *Executor {
	return &Executor{
		browser: browser,
		logger:  logger,
		timeout: timeout,
	}
}

func (e *Executor) Execute(ctx context.Context, state *entity.PageState, action entity.Action) (entity.Outcome, error) {
	if e.finished {
		return entity.Outcome{}, fmt.Errorf("executor received %s after finish", action.String())
	}

	if err := action.Validate(); err != nil {
		return entity.FailureOutcome(entity.FailurePlanParse, err.Error()), nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome := e.dispatch(ctx, state, action)

	if outcome.OK() {
		e.logger.Debug("Action executed", "action", action.String(), "durationMs", time.Since(start).Milliseconds())
	} else {
		e.logger.Warn("Action failed", "action", action.String(), "failure", outcome.Failure.Error())
	}

	if action.Kind == entity.ActionFinish {
		e.finished = true
	}
	return outcome, nil
}

func (e *Executor) dispatch(ctx context.Context, state *entity.PageState, action entity.Action) entity.Outcome {
	switch action.Kind {
	case entity.ActionNavigate:
		if err := e.browser.Navigate(ctx, action.URL); err != nil {
			return mapBrowserError(err)
		}
		return entity.SuccessOutcome(fmt.Sprintf("navigated to %s", e.browser.CurrentURL()))

	case entity.ActionClick:
		el, ok := state.Element(action.ElementRef)
		if !ok {
			return staleRef(action.ElementRef)
		}
		if err := e.browser.Click(ctx, el.Selector); err != nil {
			return mapBrowserError(err)
		}
		return entity.SuccessOutcome(fmt.Sprintf("clicked %s", action.ElementRef))

	case entity.ActionTypeText:
		el, ok := state.Element(action.ElementRef)
		if !ok {
			return staleRef(action.ElementRef)
		}
		if err := e.browser.TypeText(ctx, el.Selector, action.Text); err != nil {
			return mapBrowserError(err)
		}
		return entity.SuccessOutcome(fmt.Sprintf("typed into %s", action.ElementRef))

	case entity.ActionScroll:
		if err := e.browser.Scroll(ctx, action.Direction); err != nil {
			return mapBrowserError(err)
		}
		return entity.SuccessOutcome(fmt.Sprintf("scrolled %s", action.Direction))

	case entity.ActionExtract:
		el, ok := state.Element(action.ElementRef)
		if !ok {
			return staleRef(action.ElementRef)
		}
		text, err := e.browser.ExtractText(ctx, el.Selector)
		if err != nil {
			return mapBrowserError(err)
		}
		if len(text) > maxExtractLen {
			cut := maxExtractLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "\n... (truncated)"
		}
		return entity.SuccessOutcome(text)

	case entity.ActionFinish:
		// Success or not is the judge's call; the finish payload is the
		// final result either way.
		return entity.SuccessOutcome(action.Result)

	default:
		return entity.FailureOutcome(entity.FailurePlanParse, fmt.Sprintf("unknown action kind %q", action.Kind))
	}
}

func staleRef(ref string) entity.Outcome {
	return entity.FailureOutcome(entity.FailureStaleReference,
		fmt.Sprintf("ref %s is not in the snapshot that produced this action", ref))
}

func mapBrowserError(err error) entity.Outcome {
	switch {
	case errors.Is(err, entity.ErrElementNotFound):
		return entity.FailureOutcome(entity.FailureElementNotFound, err.Error())
	case errors.Is(err, entity.ErrActionTimeout), errors.Is(err, context.DeadlineExceeded):
		return entity.FailureOutcome(entity.FailureTimeout, err.Error())
	case errors.Is(err, entity.ErrStaleReference):
		return entity.FailureOutcome(entity.FailureStaleReference, err.Error())
	default:
		return entity.FailureOutcome(entity.FailureTimeout, err.Error())
	}
}
