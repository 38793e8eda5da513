package progress

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mendrika-alma/formfill/pkg/schema"
)

// NATSConfig configures the NATS mirror publisher.
type NATSConfig struct {
	URL     string
	Subject string
	Logger  *log.Logger
}

// NATSPublisher mirrors progress events onto a NATS subject so observers
// outside the process can follow a run. Delivery is best-effort; publish
// failures are logged and swallowed, never surfaced to the engine.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *log.Logger
}

// NewNATSPublisher connects to the NATS server named by cfg.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("formfill-progress"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "formfill.progress"
	}
	p := &NATSPublisher{nc: nc, subject: subject, logger: cfg.Logger}
	if p.logger == nil {
		p.logger = log.New(log.Writer(), "", log.LstdFlags)
	}
	return p, nil
}

func (p *NATSPublisher) Publish(ev schema.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Printf("progress: marshal event for %s: %v", ev.Field, err)
		return
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		p.logger.Printf("progress: publish %s to %s: %v", ev.Field, p.subject, err)
	}
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	p.nc.Close()
}
