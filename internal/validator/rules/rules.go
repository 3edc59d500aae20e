// Package rules holds the built-in validators, one per tier, and registers
// them for a set of table descriptors.
package rules

import (
	"fmt"

	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
)

// RegisterDefaults registers the built-in validators that apply to descriptors:
// a duplicate key check for every table with a primary key, a foreign key
// check for every reference whose parent table is known, and the feed_info and
// trip rules when those tables are present.
func RegisterDefaults(reg *validator.Registry, descriptors []*schema.TableDescriptor) {
	known := make(map[string]*schema.TableDescriptor, len(descriptors))
	for _, desc := range descriptors {
		known[schema.Key(desc.Filename)] = desc
	}

	for _, desc := range descriptors {
		if len(desc.PrimaryKey()) > 0 {
			reg.Register(DuplicateKeyRegistration(desc.Filename))
		}
	}

	for _, desc := range descriptors {
		for _, col := range desc.ForeignKeys() {
			if _, ok := known[schema.Key(col.ForeignKey.Table)]; !ok {
				continue
			}
			reg.Register(ForeignKeyRegistration(desc.Filename, col.Name, *col.ForeignKey))
		}
	}

	if _, ok := known[feedInfoFile]; ok {
		reg.Register(FeedServiceDateRegistration())
	}
	_, hasTrips := known[tripsFile]
	_, hasStopTimes := known[stopTimesFile]
	if hasTrips && hasStopTimes {
		reg.Register(StopTimeTripRegistration())
	}
}

// DuplicateKeyRegistration checks the primary key of filename.
func DuplicateKeyRegistration(filename string) validator.Registration {
	return validator.Registration{
		Name:  fmt.Sprintf("duplicate_key:%s", filename),
		Tier:  validator.SingleFile,
		Table: filename,
		NewFile: func(_ validator.Context, deps validator.Deps) validator.FileValidator {
			return &DuplicateKeyValidator{table: deps.Table(filename)}
		},
	}
}

// ForeignKeyRegistration checks that every value of filename's column exists in parent.
func ForeignKeyRegistration(filename, column string, parent schema.Ref) validator.Registration {
	deps := []string{filename, parent.Table}
	if schema.Key(parent.Table) == schema.Key(filename) {
		deps = deps[:1]
	}
	return validator.Registration{
		Name:         fmt.Sprintf("foreign_key:%s:%s", filename, column),
		Tier:         validator.MultiFile,
		Dependencies: deps,
		NewFile: func(_ validator.Context, deps validator.Deps) validator.FileValidator {
			return &ForeignKeyValidator{
				child:        deps.Table(filename),
				childColumn:  column,
				parent:       deps.Table(parent.Table),
				parentColumn: parent.Column,
			}
		},
	}
}

// FeedServiceDateRegistration checks the service range declared in feed_info.txt.
func FeedServiceDateRegistration() validator.Registration {
	return validator.Registration{
		Name:  "feed_service_date",
		Tier:  validator.SingleEntity,
		Table: feedInfoFile,
		NewEntity: func(validator.Context) validator.SingleEntityValidator {
			return FeedServiceDateValidator{}
		},
	}
}

// StopTimeTripRegistration checks that trips are served by stop times.
func StopTimeTripRegistration() validator.Registration {
	return validator.Registration{
		Name:         "stop_time_trip",
		Tier:         validator.MultiFile,
		Dependencies: []string{tripsFile, stopTimesFile},
		NewFile: func(_ validator.Context, deps validator.Deps) validator.FileValidator {
			return &StopTimeTripValidator{
				trips:     deps.Table(tripsFile),
				stopTimes: deps.Table(stopTimesFile),
			}
		},
	}
}

const (
	feedInfoFile  = "feed_info.txt"
	tripsFile     = "trips.txt"
	stopTimesFile = "stop_times.txt"
)
