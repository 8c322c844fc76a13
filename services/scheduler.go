package services

import (
	"log"
	"time"

	"campaign-quest-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartLifecycleScheduler runs the date-window housekeeping: DRAFT
// campaigns whose start date arrived go ACTIVE, and ACTIVE campaigns
// whose end date passed are marked COMPLETED so admission stops
// accepting codes even before an operator gets to them. Status
// transitions stay explicit everywhere else.
func (s *CampaignService) StartLifecycleScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var starting []models.Campaign
			err := s.DB.Where("status = ? AND start_date IS NOT NULL AND start_date <= ? AND (end_date IS NULL OR end_date > ?)",
				models.CampaignStatusDraft, now, now).
				Find(&starting).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, c := range starting {
				c.Status = models.CampaignStatusActive
				if err := s.DB.Save(&c).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate campaign %s: %v", c.ID, err)
				} else {
					log.Printf("🚀 Auto-activated campaign: %s", c.Title)
				}
			}

			var ended []models.Campaign
			err = s.DB.Where("status = ? AND end_date IS NOT NULL AND end_date <= ?",
				models.CampaignStatusActive, now).
				Find(&ended).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, c := range ended {
				c.Status = models.CampaignStatusCompleted
				if err := s.DB.Save(&c).Error; err != nil {
					log.Printf("[Scheduler] Failed to complete campaign %s: %v", c.ID, err)
				} else {
					log.Printf("🏁 Auto-completed campaign: %s", c.Title)
				}
			}
		}),
	)
}
