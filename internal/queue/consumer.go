package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ActivityLogName is the file the consumer appends to inside its directory.
const ActivityLogName = "activity.log"

// ActivityConsumer drains both event queues into a human-readable activity
// log, one line per message.
type ActivityConsumer struct {
    url string
    dir string
    log *slog.Logger
    mu  sync.Mutex // serializes appends from the two queues
}

func NewActivityConsumer(url, dir string, log *slog.Logger) *ActivityConsumer {
    if dir == "" {
        dir = "logs"
    }
    if log == nil {
        log = slog.Default()
    }
    return &ActivityConsumer{url: url, dir: dir, log: log}
}

// StartActivityConsumer runs the reconnect loop until ctx is cancelled.
// Failures to reach the broker are logged and retried with backoff, so the
// HTTP server keeps serving while RabbitMQ is down.
func StartActivityConsumer(ctx context.Context, url, dir string, log *slog.Logger) error {
    return NewActivityConsumer(url, dir, log).Run(ctx)
}

func (c *ActivityConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("activity consumer: dial failed", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("activity consumer: loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *ActivityConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("activity consumer: set QoS failed", "error", err)
    }

    var wg sync.WaitGroup
    errs := make(chan error, 2)
    for _, q := range []string{MemberRegisteredQueue, AttendanceRecordedQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        wg.Add(1)
        go func(q string, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case d, ok := <-msgs:
                    if !ok {
                        errs <- fmt.Errorf("%s: deliveries channel closed", q)
                        return
                    }
                    if err := c.Handle(q, d.Body); err != nil {
                        c.log.Error("activity consumer: handle message failed", "queue", q, "error", err)
                        _ = d.Nack(false, false) // do not requeue poison messages
                        continue
                    }
                    _ = d.Ack(false)
                }
            }
        }(q, msgs)
    }

    // Either queue closing means the channel is gone; drop both and reconnect.
    select {
    case <-ctx.Done():
        err = ctx.Err()
    case err = <-errs:
    }
    _ = ch.Close()
    wg.Wait()
    if err == nil {
        err = errors.New("consumer stopped")
    }
    return err
}

// Handle formats one message from queue and appends it to the activity log.
func (c *ActivityConsumer) Handle(queue string, body []byte) error {
    line, err := formatLine(queue, body)
    if err != nil {
        return err
    }

    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, ActivityLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(queue string, body []byte) (string, error) {
    switch queue {
    case MemberRegisteredQueue:
        var ev MemberRegisteredEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Member registered | member_id=%s | member_number=%s | governorate=%q | entity=%q | type=%s | qr_pending=%t\n",
            ev.RegisteredAt, ev.MemberID, ev.MemberNumber, ev.Governorate, ev.EntityName, ev.MemberType, ev.QRPending), nil
    case AttendanceRecordedQueue:
        var ev AttendanceRecordedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Attendance recorded | attendance_id=%s | event_id=%s | event=%q | member_id=%s | member_number=%s | scanned_by=%s\n",
            ev.ScannedAt, ev.AttendanceID, ev.EventID, ev.EventName, ev.MemberID, ev.MemberNumber, ev.ScannedBy), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}
