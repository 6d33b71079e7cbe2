// Package transducer models the sensors and actuators of a building.
//
// A Transducer carries an identity, an optional set point expressed as a
// measure.Measure, free-form metadata, and an ordered history of readings
// (measure.SensorData) and trigger events (measure.TriggerHistory).
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                      Transducer Registry                       │
//	│                                                                │
//	│  ┌──────────────────┐   ┌──────────────────┐   ┌────────────┐  │
//	│  │     Registry     │   │    Repository    │   │   Ingest   │  │
//	│  │  (registry.go)   │──▶│ (repository.go)  │   │ (ingest.go)│  │
//	│  │                  │   │                  │   │            │  │
//	│  │ • unique names   │   │ • SQLite queries │   │ • MQTT in  │  │
//	│  │ • in-memory cache│   │ • JSON columns   │   │ • set point│  │
//	│  │ • sink fan-out   │   │ • data history   │   │   publish  │  │
//	│  └──────────────────┘   └──────────────────┘   └────────────┘  │
//	└────────────────────────────────────────────────────────────────┘
//
// # Equality
//
// Two transducers are equal when their names are equal. The ID, registry ID,
// set point, metadata, and data do not take part. The Registry refuses
// duplicate names so that name equality identifies one transducer.
//
// # Usage
//
//	repo := transducer.NewSQLiteRepository(db)
//	registry := transducer.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	t, err := registry.Create(ctx, "AHU-1 Supply Temp", "brick:AHU1_SAT")
//	sp, _ := measure.NewMeasure(18, measure.UnitCelsius)
//	err = registry.SetSetPoint(ctx, t.ID(), sp, measure.UnitCelsius)
//
// # Thread Safety
//
// Transducer, Registry, and SQLiteRepository are safe for concurrent use.
//
// # Related Documentation
//
//   - migrations/20260301_120000_transducers.up.sql: database schema
package transducer
