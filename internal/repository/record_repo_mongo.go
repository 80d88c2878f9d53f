package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"hemoscan/internal/domain"
)

type mongoCBCReport struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	UserEmail  string        `bson:"user_email"`
	Hemoglobin float64       `bson:"hemoglobin"`
	RBC        *float64      `bson:"rbc,omitempty"`
	Hematocrit *float64      `bson:"hematocrit,omitempty"`
	MCV        *float64      `bson:"mcv,omitempty"`
	MCH        *float64      `bson:"mch,omitempty"`
	MCHC       *float64      `bson:"mchc,omitempty"`
	RDW        *float64      `bson:"rdw,omitempty"`
	WBC        *float64      `bson:"wbc,omitempty"`
	Platelets  *float64      `bson:"platelets,omitempty"`
	Lab        string        `bson:"lab,omitempty"`
	ReportDate string        `bson:"report_date,omitempty"`
	CreatedAt  time.Time     `bson:"created_at"`
}

type mongoSymptomEntry struct {
	ID        bson.ObjectID  `bson:"_id,omitempty"`
	UserEmail string         `bson:"user_email"`
	Symptoms  map[string]any `bson:"symptoms"`
	CreatedAt time.Time      `bson:"created_at"`
}

type MongoCBCReportRepository struct {
	coll *mongo.Collection
}

func NewMongoCBCReportRepository(client *mongo.Client, database string) *MongoCBCReportRepository {
	return &MongoCBCReportRepository{coll: client.Database(database).Collection("cbc_reports")}
}

func (r *MongoCBCReportRepository) Create(ctx context.Context, report domain.CBCReport) (string, error) {
	doc := mongoCBCReport{
		ID:         bson.NewObjectID(),
		UserEmail:  report.UserEmail,
		Hemoglobin: report.Hemoglobin,
		RBC:        report.RBC,
		Hematocrit: report.Hematocrit,
		MCV:        report.MCV,
		MCH:        report.MCH,
		MCHC:       report.MCHC,
		RDW:        report.RDW,
		WBC:        report.WBC,
		Platelets:  report.Platelets,
		Lab:        report.Lab,
		ReportDate: report.ReportDate,
		CreatedAt:  report.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (r *MongoCBCReportRepository) ListByUser(ctx context.Context, email string, limit int) ([]domain.CBCReport, error) {
	var docs []mongoCBCReport
	if err := findNewest(ctx, r.coll, email, limit, &docs); err != nil {
		return nil, err
	}
	reports := make([]domain.CBCReport, 0, len(docs))
	for _, d := range docs {
		reports = append(reports, domain.CBCReport{
			ID:         d.ID.Hex(),
			UserEmail:  d.UserEmail,
			Hemoglobin: d.Hemoglobin,
			RBC:        d.RBC,
			Hematocrit: d.Hematocrit,
			MCV:        d.MCV,
			MCH:        d.MCH,
			MCHC:       d.MCHC,
			RDW:        d.RDW,
			WBC:        d.WBC,
			Platelets:  d.Platelets,
			Lab:        d.Lab,
			ReportDate: d.ReportDate,
			CreatedAt:  d.CreatedAt.UTC(),
		})
	}
	return reports, nil
}

type MongoSymptomRepository struct {
	coll *mongo.Collection
}

func NewMongoSymptomRepository(client *mongo.Client, database string) *MongoSymptomRepository {
	return &MongoSymptomRepository{coll: client.Database(database).Collection("symptoms")}
}

func (r *MongoSymptomRepository) Create(ctx context.Context, entry domain.SymptomEntry) (string, error) {
	doc := mongoSymptomEntry{
		ID:        bson.NewObjectID(),
		UserEmail: entry.UserEmail,
		Symptoms:  entry.Symptoms,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (r *MongoSymptomRepository) ListByUser(ctx context.Context, email string, limit int) ([]domain.SymptomEntry, error) {
	var docs []mongoSymptomEntry
	if err := findNewest(ctx, r.coll, email, limit, &docs); err != nil {
		return nil, err
	}
	entries := make([]domain.SymptomEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, domain.SymptomEntry{
			ID:        d.ID.Hex(),
			UserEmail: d.UserEmail,
			Symptoms:  d.Symptoms,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return entries, nil
}

func findNewest(ctx context.Context, coll *mongo.Collection, email string, limit int, out any) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))
	cursor, err := coll.Find(ctx, bson.M{"user_email": email}, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}
