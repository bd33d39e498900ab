// Package basestation writes decoded messages in the BaseStation (SBS-1) CSV format.
package basestation

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
)

// BaseStation message types
const (
	BaseStationMSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT   = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_AIRBORNE = 3 // Extended Squitter Airborne Position
)

// Message is one BaseStation line
type Message struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// WriterProvider supplies the destination of each line
type WriterProvider interface {
	GetWriter() (io.Writer, error)
}

// Writer writes messages in BaseStation format
type Writer struct {
	out        WriterProvider
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
	now        func() time.Time
}

// NewWriter creates a new BaseStation writer
func NewWriter(out WriterProvider, logger *logrus.Logger) *Writer {
	return &Writer{
		out:        out,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
		now:        time.Now,
	}
}

// WriteMessage writes msg as one CSV line. Message kinds without an SBS
// equivalent are skipped.
func (w *Writer) WriteMessage(msg adsb.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	line := w.convertMessage(msg)
	if line == nil {
		return nil
	}

	writer, err := w.out.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}

	if _, err := io.WriteString(writer, formatCSV(line)+"\n"); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}
	return nil
}

// convertMessage maps a decoded message to its BaseStation fields
func (w *Writer) convertMessage(msg adsb.Message) *Message {
	now := w.now().UTC()

	line := &Message{
		MessageType:   BaseStationMSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		HexIdent:      msg.Address().String(),
		FlightID:      w.aircraftID,
		DateGenerated: now,
		TimeGenerated: now,
		DateLogged:    now,
		TimeLogged:    now,
	}

	switch m := msg.(type) {
	case adsb.IdentificationMessage:
		line.TransmissionType = TransmissionES_ID_CAT
		line.Callsign = m.CallSign().String()

	case adsb.PositionMessage:
		// Latitude and longitude stay blank: only the CPR fractions are known
		line.TransmissionType = TransmissionES_AIRBORNE
		line.Altitude = strconv.Itoa(int(math.Round(m.Altitude() / adsb.FeetToMeters)))
		line.IsOnGround = "0"

	default:
		w.logger.WithField("type", fmt.Sprintf("%T", msg)).Debug("No BaseStation mapping for message")
		return nil
	}

	return line
}

// formatCSV formats a BaseStation message as CSV
func formatCSV(msg *Message) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}

	return strings.Join(fields, ",")
}
