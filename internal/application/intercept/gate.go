package intercept

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/pkg/logger"
	"github.com/doeshing/shellgate/internal/ports"
)

const (
	convertedNotes = "Successfully converted shell command to web operation"
	blockedPrefix  = "Shell command blocked for web safety: "
)

// Gate stands in for shell execution. Every command it receives is either
// converted to a read-only equivalent or blocked; nothing is ever executed.
//
// A Gate belongs to one session and is called sequentially, but its status
// may be read from other goroutines.
type Gate struct {
	Classifier ports.CommandClassifier
	Converter  ports.CommandConverter
	Repository ports.RepositoryAccessor
	Tracker    ports.ConversionTracker
	Metrics    ports.MetricsRecorder
	Logger     ports.Logger
	UserID     string
	Model      string
	// ContextFiles reports the files loaded for the assistant when a command arrives.
	ContextFiles func() []string
	Now          func() time.Time

	mu          sync.Mutex
	sessionID   string
	status      domain.ConversionStatus
	intercepted []string
}

// RunShell implements ports.ShellRunner.
func (g *Gate) RunShell(ctx context.Context, command string) (int, string) {
	return g.Intercept(ctx, command)
}

// Intercept converts or blocks one command and returns a synthetic exit code
// and output. Tracking failures are logged and never change the result.
func (g *Gate) Intercept(ctx context.Context, command string) (int, string) {
	start := time.Now()
	log := g.logger()
	log.Info("intercepted shell command", map[string]interface{}{"command": command})

	g.mu.Lock()
	g.intercepted = append(g.intercepted, command)
	g.status.TotalOperations++
	sessionID := g.sessionID
	g.mu.Unlock()

	commandType := domain.CommandShell
	priority := domain.PriorityMedium
	if g.Classifier != nil {
		commandType = g.Classifier.Classify(command)
		priority = g.Classifier.Priority(command)
	}

	operationID := g.openOperation(ctx, sessionID, command, commandType, priority)

	output, converted := g.convert(ctx, command)

	g.mu.Lock()
	if converted {
		now := g.now()
		g.status.ConvertedOperations++
		g.status.LastConversion = &now
	} else {
		g.status.PendingConversions = append(g.status.PendingConversions, command)
	}
	g.status.Recompute()
	g.mu.Unlock()

	if converted {
		g.closeOperation(ctx, domain.ConversionUpdate{
			OperationID:         operationID,
			Status:              domain.StateCompleted,
			ConvertedEquivalent: "Web-safe equivalent for: " + command,
			WebEquivalentOutput: output,
			ConversionNotes:     convertedNotes,
		})
	} else {
		g.closeOperation(ctx, domain.ConversionUpdate{
			OperationID:     operationID,
			Status:          domain.StateFailed,
			ErrorMessage:    "No web-safe equivalent available for command: " + command,
			ConversionNotes: g.declineReason(command),
		})
	}

	if g.Metrics != nil {
		g.Metrics.RecordInterception(commandType, converted, time.Since(start).Seconds())
	}
	if converted {
		return 0, output
	}
	log.Warn("blocked shell command", map[string]interface{}{
		"command": command,
		"type":    string(commandType),
	})
	return 1, blockedPrefix + command
}

// SetSession starts tracking under sessionID. An empty id disables tracking.
func (g *Gate) SetSession(sessionID string) {
	g.mu.Lock()
	g.sessionID = sessionID
	g.mu.Unlock()
}

// SessionID returns the active tracking session.
func (g *Gate) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

// Status returns a copy of the running aggregate.
func (g *Gate) Status() domain.ConversionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status.Clone()
}

// Intercepted returns the commands seen since the last ResetIntercepted.
func (g *Gate) Intercepted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.intercepted...)
}

// ResetIntercepted clears the per-message command log. The aggregate status is kept.
func (g *Gate) ResetIntercepted() {
	g.mu.Lock()
	g.intercepted = nil
	g.mu.Unlock()
}

func (g *Gate) openOperation(ctx context.Context, sessionID, command string, commandType domain.CommandType, priority domain.Priority) string {
	if g.Tracker == nil || sessionID == "" {
		return ""
	}
	userID := g.UserID
	if userID == "" {
		userID = domain.DefaultUserID
	}
	var contextFiles []string
	if g.ContextFiles != nil {
		contextFiles = g.ContextFiles()
	}
	metadata := map[string]string{"timestamp": g.now().Format(domain.TimestampFormat)}
	if g.Model != "" {
		metadata["model"] = g.Model
	}

	operationID, err := g.Tracker.CreateOperation(ctx, domain.ConversionRequest{
		OperationType:   commandType,
		OriginalCommand: command,
		SessionID:       sessionID,
		UserID:          userID,
		Priority:        priority,
		ContextFiles:    contextFiles,
		Metadata:        metadata,
	})
	if err != nil {
		g.trackingFailed("create_operation", err, command)
		return ""
	}
	if err := g.Tracker.UpdateOperation(ctx, domain.ConversionUpdate{
		OperationID: operationID,
		Status:      domain.StateInProgress,
	}); err != nil {
		g.trackingFailed("update_operation", err, command)
	}
	return operationID
}

// closeOperation records the terminal state even if ctx was cancelled while
// converting, so no operation is left in progress.
func (g *Gate) closeOperation(ctx context.Context, update domain.ConversionUpdate) {
	if g.Tracker == nil || update.OperationID == "" {
		return
	}
	if err := g.Tracker.UpdateOperation(context.WithoutCancel(ctx), update); err != nil {
		g.trackingFailed("update_operation", err, update.OperationID)
	}
}

func (g *Gate) convert(ctx context.Context, command string) (output string, converted bool) {
	if g.Converter == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger().Error("converter panicked", fmt.Errorf("%v", r), map[string]interface{}{"command": command})
			output, converted = "", false
		}
	}()
	return g.Converter.Convert(ctx, command, g.Repository)
}

func (g *Gate) declineReason(command string) string {
	if g.Converter == nil {
		return ""
	}
	return g.Converter.DeclineReason(command)
}

func (g *Gate) trackingFailed(call string, err error, subject string) {
	g.logger().Error("conversion tracking failed", err, map[string]interface{}{
		"call":    call,
		"subject": subject,
	})
	if g.Metrics != nil {
		g.Metrics.RecordTrackingError(call)
	}
}

func (g *Gate) logger() ports.Logger {
	if g.Logger == nil {
		return logger.Nop()
	}
	return g.Logger
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

var _ ports.ShellRunner = (*Gate)(nil)
