package alert

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

const (
	// MaxAttachments bounds the number of annotated frames attached to one
	// alert. Positives beyond the bound are silently truncated.
	MaxAttachments = 5
	// maxAttachmentWidth is the pixel width attachments are downscaled to.
	maxAttachmentWidth = 1280
)

var (
	// ErrCredentialsMissing means sender, secret, or recipient is unset.
	// Dispatch fails before any connection attempt.
	ErrCredentialsMissing = errors.New("alert credentials missing")
	// ErrAuth means the relay rejected the configured credentials.
	ErrAuth = errors.New("smtp authentication failed")
	// ErrTransport covers dial, protocol, and timeout failures.
	ErrTransport = errors.New("smtp transport failed")
)

// Status reports how completely an alert was delivered.
type Status int

const (
	Delivered Status = iota
	PartiallyDelivered
)

func (s Status) String() string {
	if s == PartiallyDelivered {
		return "partially_delivered"
	}
	return "delivered"
}

// Result describes one completed dispatch attempt.
type Result struct {
	Status    Status
	Requested int
	Attached  int
}

// Payload is the transient message composed from a DetectionSummary.
type Payload struct {
	Subject     string
	Body        string
	Location    string
	Count       int
	Timestamp   time.Time
	Attachments []string
}

type attachment struct {
	name string
	data []byte
}

// Mailer delivers detection alerts over an SMTP relay. It performs no
// retries; a failed dispatch is reported to the caller.
type Mailer struct {
	host      string
	port      int
	sender    string
	password  string
	recipient string
	timeout   time.Duration
	logger    *logger.Logger

	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
}

func NewMailer(config *config.Config, logger *logger.Logger) *Mailer {
	return &Mailer{
		host:      config.SMTPHost,
		port:      config.SMTPPort,
		sender:    config.SenderEmail,
		password:  config.SenderPassword,
		recipient: config.RecipientEmail,
		timeout:   time.Duration(config.SMTPTimeout) * time.Second,
		logger:    logger,
		dial:      net.DialTimeout,
	}
}

// BuildPayload composes the alert message for a summary. Attachment paths
// are the first MaxAttachments positive-frame artifacts, in frame order.
func BuildPayload(summary *models.DetectionSummary) *Payload {
	paths := make([]string, 0, MaxAttachments)
	for _, positive := range summary.Positives {
		if len(paths) == MaxAttachments {
			break
		}
		paths = append(paths, positive.ResultPath)
	}

	subject := fmt.Sprintf("🚨 Road Damage Alert! %d detection(s) at %s",
		summary.TotalCount, summary.Location)

	body := fmt.Sprintf(`Road damage has been detected.

Location:    %s
Detections:  %d
Input type:  %s
Detected at: %s

Annotated frames are attached (up to %d).

---
Automated Road Damage Detection System
`, summary.Location, summary.TotalCount, summary.Type,
		summary.Timestamp.Format("2006-01-02 15:04:05"), MaxAttachments)

	return &Payload{
		Subject:     subject,
		Body:        body,
		Location:    summary.Location,
		Count:       summary.TotalCount,
		Timestamp:   summary.Timestamp,
		Attachments: paths,
	}
}

// Dispatch composes and sends an alert for the summary. Individual
// attachment read failures are logged and skipped; the message is sent
// with whatever attachments could be read, possibly none.
func (m *Mailer) Dispatch(summary *models.DetectionSummary) (*Result, error) {
	if m.sender == "" || m.password == "" || m.recipient == "" {
		return nil, ErrCredentialsMissing
	}

	payload := BuildPayload(summary)
	attachments := m.readAttachments(payload.Attachments)

	if err := m.send(m.buildMessage(payload, attachments)); err != nil {
		return nil, err
	}

	result := &Result{
		Status:    deliveryStatus(len(payload.Attachments), len(attachments)),
		Requested: len(payload.Attachments),
		Attached:  len(attachments),
	}
	m.logger.Info("✅ Alert %s to %s (%d/%d attachments)",
		result.Status, m.recipient, result.Attached, result.Requested)
	return result, nil
}

func deliveryStatus(requested, attached int) Status {
	if attached < requested {
		return PartiallyDelivered
	}
	return Delivered
}

// readAttachments loads and downscales each annotated frame. A file that
// cannot be read or decoded is skipped, not fatal to the send.
func (m *Mailer) readAttachments(paths []string) []attachment {
	attachments := make([]attachment, 0, len(paths))
	for _, path := range paths {
		data, err := readAttachment(path)
		if err != nil {
			m.logger.Warning("📎 Skipping attachment %s: %v", path, err)
			continue
		}
		attachments = append(attachments, attachment{name: filepath.Base(path), data: data})
	}
	return attachments
}

// readAttachment re-encodes the frame as JPEG, downscaled to keep the
// message size reasonable.
func readAttachment(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > maxAttachmentWidth {
		img = imaging.Resize(img, maxAttachmentWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildMessage assembles a multipart/mixed MIME message with a plain-text
// body and base64-encoded image attachments.
func (m *Mailer) buildMessage(payload *Payload, attachments []attachment) []byte {
	boundary := "----=_Part_roadwatch_boundary"

	var msg strings.Builder
	headers := []string{
		fmt.Sprintf("From: %s", m.sender),
		fmt.Sprintf("To: %s", m.recipient),
		fmt.Sprintf("Subject: %s", payload.Subject),
		"MIME-Version: 1.0",
		fmt.Sprintf(`Content-Type: multipart/mixed; boundary="%s"`, boundary),
	}
	msg.WriteString(strings.Join(headers, "\r\n") + "\r\n\r\n")

	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(payload.Body + "\r\n")

	for _, att := range attachments {
		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString(fmt.Sprintf("Content-Type: image/jpeg; name=\"%s\"\r\n", att.name))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n\r\n", att.name))
		msg.WriteString(wrapBase64(att.data) + "\r\n")
	}
	msg.WriteString("--" + boundary + "--\r\n")

	return []byte(msg.String())
}

// wrapBase64 encodes data with RFC 2045 line wrapping.
func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var wrapped strings.Builder
	for len(encoded) > 76 {
		wrapped.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	wrapped.WriteString(encoded)
	return wrapped.String()
}

// send opens a bounded connection to the relay, upgrades to TLS,
// authenticates, and transmits the message. The connection is released on
// every exit path.
func (m *Mailer) send(msg []byte) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	conn, err := m.dial("tcp", addr, m.timeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrTransport, addr, err)
	}
	// A stalled relay surfaces as a deadline error, never a hang.
	conn.SetDeadline(time.Now().Add(m.timeout))

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake: %v", ErrTransport, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("%w: starttls: %v", ErrTransport, err)
		}
	}

	auth := smtp.PlainAuth("", m.sender, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	if err := client.Mail(m.sender); err != nil {
		return fmt.Errorf("%w: mail from: %v", ErrTransport, err)
	}
	if err := client.Rcpt(m.recipient); err != nil {
		return fmt.Errorf("%w: rcpt to: %v", ErrTransport, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %v", ErrTransport, err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrTransport, err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("%w: quit: %v", ErrTransport, err)
	}
	return nil
}
