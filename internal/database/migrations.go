package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Child{},
		&models.Invitation{},
		&models.Memory{},
		&models.MemoryReaction{},
		&models.MemoryComment{},
		&models.Album{},
		&models.AlbumMemory{},
		&models.MilestoneCategory{},
		&models.PredefinedMilestone{},
		&models.ChildMilestone{},
		&models.GrowthRecord{},
		&models.BedtimeStory{},
		&models.ExportJob{},
		&models.AITask{},
	)
}

// seedID derives a stable UUID for seeded catalog rows so re-running the
// seed is idempotent across databases.
func seedID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("sproutbook/"+name)).String()
}

// SeedData populates the predefined milestone catalog.
func SeedData(db *gorm.DB) error {
	categories := []struct {
		category   models.MilestoneCategory
		milestones []models.PredefinedMilestone
	}{
		{
			category: models.MilestoneCategory{
				BaseModel:   models.BaseModel{ID: seedID("motor")},
				Name:        "Motor Skills",
				Description: "Physical movement and coordination",
				Icon:        "hand",
				Color:       "#F59E0B",
			},
			milestones: []models.PredefinedMilestone{
				{BaseModel: models.BaseModel{ID: seedID("motor-rolls-over")}, Title: "Rolls over", TypicalAgeMonthsMin: 3, TypicalAgeMonthsMax: 6, IsMajor: true, SortOrder: 1},
				{BaseModel: models.BaseModel{ID: seedID("motor-sits-up")}, Title: "Sits without support", TypicalAgeMonthsMin: 5, TypicalAgeMonthsMax: 9, IsMajor: true, SortOrder: 2},
				{BaseModel: models.BaseModel{ID: seedID("motor-first-steps")}, Title: "First steps", TypicalAgeMonthsMin: 9, TypicalAgeMonthsMax: 16, IsMajor: true, SortOrder: 3},
			},
		},
		{
			category: models.MilestoneCategory{
				BaseModel:   models.BaseModel{ID: seedID("language")},
				Name:        "Language",
				Description: "Speech and communication",
				Icon:        "chat",
				Color:       "#3B82F6",
			},
			milestones: []models.PredefinedMilestone{
				{BaseModel: models.BaseModel{ID: seedID("language-first-word")}, Title: "First word", TypicalAgeMonthsMin: 9, TypicalAgeMonthsMax: 14, IsMajor: true, SortOrder: 1},
				{BaseModel: models.BaseModel{ID: seedID("language-two-word")}, Title: "Two-word sentences", TypicalAgeMonthsMin: 18, TypicalAgeMonthsMax: 30, SortOrder: 2},
			},
		},
		{
			category: models.MilestoneCategory{
				BaseModel:   models.BaseModel{ID: seedID("social")},
				Name:        "Social",
				Description: "Interaction and emotional development",
				Icon:        "heart",
				Color:       "#EC4899",
			},
			milestones: []models.PredefinedMilestone{
				{BaseModel: models.BaseModel{ID: seedID("social-first-smile")}, Title: "First smile", TypicalAgeMonthsMin: 1, TypicalAgeMonthsMax: 3, IsMajor: true, SortOrder: 1},
				{BaseModel: models.BaseModel{ID: seedID("social-waves-bye")}, Title: "Waves bye-bye", TypicalAgeMonthsMin: 8, TypicalAgeMonthsMax: 12, SortOrder: 2},
			},
		},
	}

	for _, entry := range categories {
		if err := db.Where(models.MilestoneCategory{BaseModel: models.BaseModel{ID: entry.category.ID}}).
			Attrs(entry.category).
			FirstOrCreate(&models.MilestoneCategory{}).Error; err != nil {
			return err
		}

		for _, milestone := range entry.milestones {
			milestone.CategoryID = entry.category.ID
			if err := db.Where(models.PredefinedMilestone{BaseModel: models.BaseModel{ID: milestone.ID}}).
				Attrs(milestone).
				FirstOrCreate(&models.PredefinedMilestone{}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
