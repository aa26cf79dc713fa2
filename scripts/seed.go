package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/search"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
)

// demoRecords mixes every stored shape: eye-indexed arrays, eye-keyed objects,
// shared scalars, legacy and current procedure blocks, and numeric eye codes.
const demoRecords = `[
  {
    "uid": "demo-001",
    "mr_no": "MR-10001",
    "name": "Demo Patient One",
    "visits": [
      {
        "visit_no": 1,
        "date": "12/01/2023",
        "consultation_type": "New",
        "diagnosis": {"re": ["Primary open angle glaucoma"], "le": ["Primary open angle glaucoma"]},
        "visual_acuity": {"distance": ["6/9", "6/12", ""], "near": ["N6", "N8", ""]},
        "anterior_segment": {"lens": ["Clear", "Early cataract", ""], "cornea": "Clear"},
        "fundus": {"disc": {"re": "CDR 0.7", "le": "CDR 0.6"}},
        "investigations": {"iop": ["24 mmHg", "22 mmHg", ""], "report": "OCT RNFL: RE 78 microns LE 85 microns"},
        "medications": [{"name": "Timolol 0.5%", "dosage": "BD", "eye": 3}],
        "follow_up": "Review in 6 weeks"
      },
      {
        "visit_no": 2,
        "date": "2023-03-01",
        "diagnosis": {"re": ["Primary open angle glaucoma"], "le": ["Primary open angle glaucoma", "Immature senile cataract"]},
        "visual_acuity": {"distance": ["6/9", "6/18", ""]},
        "investigations": {"iop": ["18", "17", ""]},
        "medications": [
          {"name": "Timolol 0.5%", "dosage": "BD", "eye": 3},
          {"name": "Latanoprost", "dosage": "HS", "eye": "1"}
        ],
        "procedures": {
          "lasers": {"re": [{"name": "SLT", "category": "Laser"}]}
        },
        "opinion": "IOP controlled after SLT"
      },
      {
        "visit_no": 3,
        "date": "2023-08-15",
        "diagnosis": {"le": ["Immature senile cataract"]},
        "visual_acuity": {"distance": ["6/6", "6/9", ""]},
        "investigations": {"iop": ["16", "15", ""]},
        "procedures": {
          "surgeries": {"le": ["Phaco with PCIOL"]}
        }
      }
    ]
  },
  {
    "uid": "demo-002",
    "mr_no": "MR-10002",
    "name": "Demo Patient Two",
    "visits": [
      {
        "visit_no": 1,
        "date": "2022-11-20",
        "diagnosis": {"re": ["Diabetic macular edema"], "be": ["Non proliferative diabetic retinopathy"]},
        "visual_acuity": {"distance": {"re": "6/24", "le": "6/9"}},
        "fundus": {"macula": ["CSME", "Normal", ""]},
        "investigations": {"iop": "14 mmHg", "report": "CMT RE 412 LE 268"},
        "procedures": {
          "advised_procedures": {"re": ["Inj. Anti-VEGF"]},
          "actual_procedures": {"re": ["Inj. Anti-VEGF"]}
        },
        "systemic_history": "Type 2 diabetes for 12 years"
      },
      {
        "visit_no": 2,
        "date": "2022-12-20",
        "diagnosis": {"re": ["Diabetic macular edema"]},
        "visual_acuity": {"distance": {"re": "6/18", "le": "6/9"}},
        "investigations": {"report": "CMT RE 330"},
        "procedures": {
          "injections": {"re": [{"name": "Anti-VEGF", "sub_type": "Ranibizumab"}]}
        }
      },
      {
        "visit_no": 3,
        "date": "2023-01-25",
        "visual_acuity": {"distance": {"re": "6/12", "le": "6/9"}},
        "investigations": {"report": "CMT RE 290"},
        "procedures": {
          "injections": {"re": [{"name": "Anti-VEGF", "sub_type": "Ranibizumab"}]},
          "lasers": {"re": ["PRP"]}
        },
        "follow_up": "Review 1 month"
      }
    ]
  }
]`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("eyetimeline-seed", cfg.Log.Environment, cfg.Log.Level)

	var records []*entities.PatientRecord
	if err := json.Unmarshal([]byte(demoRecords), &records); err != nil {
		log.Fatal().Err(err).Msg("failed to decode demo records")
	}

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating patient_records before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE patient_records`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset table")
		}
	}

	repo := database.NewPatientRecordAdapter(pgClient.DBX(), nil)

	var indexer *services.PatientIndexService
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, seeding without search index")
	} else {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		indexer = services.NewPatientIndexService(repo, adapter, 0)
	}

	patients := services.NewPatientService(repo, nil, indexer)
	for _, record := range records {
		if err := patients.Upsert(ctx, record); err != nil {
			log.Error().Err(err).Str("uid", record.UID).Msg("failed to seed patient")
			continue
		}
		log.Info().Str("uid", record.UID).Int("visits", record.VisitCount).Msg("seeded patient")
	}
}
