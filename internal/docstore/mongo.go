// Package docstore keeps prescriptions in MongoDB behind a circuit breaker.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-scheduling-api/internal/model"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collection = "prescriptions"

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("prescription store unavailable")

type prescriptionDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	AppointmentID int64              `bson:"appointmentId"`
	DoctorID      int64              `bson:"doctorId"`
	PatientName   string             `bson:"patientName"`
	Medication    string             `bson:"medication"`
	Dosage        string             `bson:"dosage"`
	Notes         string             `bson:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func (d prescriptionDoc) model() model.Prescription {
	return model.Prescription{
		ID:            d.ID.Hex(),
		AppointmentID: d.AppointmentID,
		DoctorID:      d.DoctorID,
		PatientName:   d.PatientName,
		Medication:    d.Medication,
		Dosage:        d.Dosage,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
	}
}

type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
	Breaker  BreakerConfig
	OnState  StateFunc
}

func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Mongo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig("mongo-prescriptions")
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(collection),
		cb:     newBreaker(cfg.Breaker, logger, cfg.OnState),
		logger: logger,
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "appointmentId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create prescription index: %w", err)
	}
	return nil
}

func (m *Mongo) InsertPrescription(ctx context.Context, p *model.Prescription) error {
	doc := prescriptionDoc{
		AppointmentID: p.AppointmentID,
		DoctorID:      p.DoctorID,
		PatientName:   p.PatientName,
		Medication:    p.Medication,
		Dosage:        p.Dosage,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := m.execute(func() (any, error) {
		return m.coll.InsertOne(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	if id, ok := res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID); ok {
		p.ID = id.Hex()
	}
	p.CreatedAt = doc.CreatedAt
	return nil
}

func (m *Mongo) PrescriptionsByAppointment(ctx context.Context, appointmentID int64) ([]model.Prescription, error) {
	res, err := m.execute(func() (any, error) {
		cur, err := m.coll.Find(ctx,
			bson.M{"appointmentId": appointmentID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			return nil, err
		}
		var docs []prescriptionDoc
		if err := cur.All(ctx, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("find prescriptions: %w", err)
	}

	docs := res.([]prescriptionDoc)
	out := make([]model.Prescription, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) execute(fn func() (any, error)) (any, error) {
	res, err := m.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}
