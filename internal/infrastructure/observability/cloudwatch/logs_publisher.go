package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

// 256 KB на событие, лимит CloudWatch Logs
const maxLogEventSize = 256000

var (
	ErrLogQueueFull       = errors.New("cloudwatch log queue is full")
	ErrLogPublisherClosed = errors.New("cloudwatch log publisher is closed")
)

type logsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// LogsPublisherConfig holds configuration for CloudWatch logs publishing.
type LogsPublisherConfig struct {
	LogGroupName    string
	LogStreamName   string
	Region          string
	Endpoint        string // LocalStack
	AccessKeyID     string
	SecretAccessKey string
	BufferSize      int // events per PutLogEvents call
	QueueSize       int // entries waiting for the worker; overflow is dropped
	FlushInterval   time.Duration
	AutoCreate      bool
}

// LogsPublisher is the logger sink that ships gallery log lines to CloudWatch Logs.
// Publish never does network I/O: the request path only enqueues, a single
// worker batches and sends. Реализует port.LogPublisher
type LogsPublisher struct {
	client        logsAPI
	logGroupName  string
	logStreamName string
	batchSize     int
	interval      time.Duration

	queue   chan port.LogEntry
	flushes chan chan error
	dropped atomic.Int64

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func (cfg *LogsPublisherConfig) validate() error {
	if cfg.LogGroupName == "" {
		return fmt.Errorf("log group name is required")
	}
	if cfg.LogStreamName == "" {
		return fmt.Errorf("log stream name is required")
	}
	if cfg.Region == "" {
		return fmt.Errorf("region is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50
	}
	if cfg.QueueSize < cfg.BufferSize {
		cfg.QueueSize = cfg.BufferSize * 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return nil
}

// NewLogsPublisher creates the publisher and starts its worker.
func NewLogsPublisher(ctx context.Context, cfg LogsPublisherConfig) (*LogsPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	return newLogsPublisher(ctx, cloudwatchlogs.NewFromConfig(awsCfg), cfg)
}

func newLogsPublisher(ctx context.Context, client logsAPI, cfg LogsPublisherConfig) (*LogsPublisher, error) {
	p := &LogsPublisher{
		client:        client,
		logGroupName:  cfg.LogGroupName,
		logStreamName: cfg.LogStreamName,
		batchSize:     max(cfg.BufferSize, 1),
		interval:      cfg.FlushInterval,
		queue:         make(chan port.LogEntry, max(cfg.QueueSize, 1)),
		flushes:       make(chan chan error),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	if p.interval <= 0 {
		p.interval = 5 * time.Second
	}

	if cfg.AutoCreate {
		if err := p.ensureLogGroupAndStream(ctx); err != nil {
			return nil, fmt.Errorf("failed to create log group/stream: %w", err)
		}
	}

	go p.run()
	return p, nil
}

// Publish enqueues an entry without blocking; a full queue drops it.
func (p *LogsPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	select {
	case <-p.done:
		return ErrLogPublisherClosed
	default:
	}

	select {
	case p.queue <- entry:
		return nil
	default:
		p.dropped.Add(1)
		return ErrLogQueueFull
	}
}

func (p *LogsPublisher) PublishBatch(ctx context.Context, entries []port.LogEntry) error {
	var errs []error
	for _, entry := range entries {
		if err := p.Publish(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush ships everything enqueued before the call.
func (p *LogsPublisher) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case p.flushes <- reply:
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after it ships the remaining queue.
func (p *LogsPublisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.done) })

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *LogsPublisher) run() {
	defer close(p.stopped)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	batch := make([]port.LogEntry, 0, p.batchSize)
	ship := func(ctx context.Context) error {
		err := p.ship(ctx, batch)
		// неотправленный batch не копим: логи не должны расти без границ
		batch = batch[:0]
		return err
	}

	for {
		select {
		case entry := <-p.queue:
			batch = append(batch, entry)
			if len(batch) >= p.batchSize {
				_ = p.withTimeout(ship)
			}

		case <-ticker.C:
			_ = p.withTimeout(ship)

		case reply := <-p.flushes:
			reply <- p.withTimeout(func(ctx context.Context) error {
				return p.drain(ctx, &batch, ship)
			})

		case <-p.done:
			_ = p.withTimeout(func(ctx context.Context) error {
				return p.drain(ctx, &batch, ship)
			})
			return
		}
	}
}

// drain переносит очередь в batch, отправляя его порциями по batchSize
func (p *LogsPublisher) drain(ctx context.Context, batch *[]port.LogEntry, ship func(context.Context) error) error {
	var errs []error
	for {
		select {
		case entry := <-p.queue:
			*batch = append(*batch, entry)
			if len(*batch) >= p.batchSize {
				if err := ship(ctx); err != nil {
					errs = append(errs, err)
				}
			}
		default:
			if err := ship(ctx); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		}
	}
}

func (p *LogsPublisher) withTimeout(call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return call(ctx)
}

// ship sends one PutLogEvents call, adding a notice if entries were dropped since the last one.
func (p *LogsPublisher) ship(ctx context.Context, entries []port.LogEntry) error {
	if n := p.dropped.Swap(0); n > 0 {
		entries = append(entries, port.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     port.LogLevelWarn,
			Message:   "Log entries dropped, queue was full",
			Fields:    map[string]interface{}{"dropped": n},
		})
	}
	if len(entries) == 0 {
		return nil
	}

	// CloudWatch Logs требует хронологический порядок внутри запроса
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	events := make([]types.InputLogEvent, 0, len(entries))
	for _, entry := range entries {
		events = append(events, encodeLogEvent(entry))
	}

	err := withBackoff(ctx, func() error {
		_, err := p.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroupName),
			LogStreamName: aws.String(p.logStreamName),
			LogEvents:     events,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to put %d log events: %w", len(events), err)
	}
	return nil
}

type logLine struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// encodeLogEvent renders an entry as one JSON line; unencodable fields are dropped.
func encodeLogEvent(entry port.LogEntry) types.InputLogEvent {
	line := logLine{
		Time:    entry.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:   string(entry.Level),
		Message: entry.Message,
		Fields:  entry.Fields,
	}

	body, err := json.Marshal(line)
	if err != nil {
		line.Fields = map[string]interface{}{"fields_error": err.Error()}
		body, _ = json.Marshal(line)
	}

	message := string(body)
	if len(message) > maxLogEventSize {
		message = message[:maxLogEventSize-3] + "..."
	}

	return types.InputLogEvent{
		Message:   aws.String(message),
		Timestamp: aws.Int64(entry.Timestamp.UnixMilli()),
	}
}

func (p *LogsPublisher) ensureLogGroupAndStream(ctx context.Context) error {
	var alreadyExists *types.ResourceAlreadyExistsException

	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroupName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log group: %w", err)
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroupName),
		LogStreamName: aws.String(p.logStreamName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log stream: %w", err)
	}
	return nil
}
