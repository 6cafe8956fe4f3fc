package db

import (
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedSampleData loads demo campaigns, ad sets, ads, a budget and an
// A/B test so a fresh install has something to chart. No-op when the
// campaigns table already has rows.
func SeedSampleData(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&Campaign{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	campaigns := []Campaign{
		{CampaignID: "META_C01", CampaignName: "Fall Collection Showcase - TOF", Platform: "Meta", Objective: "Awareness", FunnelStage: "TOF"},
		{CampaignID: "GOOG_C02", CampaignName: "Modern Living Room Search - BOF", Platform: "Google", Objective: "Sales", FunnelStage: "BOF"},
		{CampaignID: "TIKTOK_C03", CampaignName: "Dorm Room Decor - MOF", Platform: "TikTok", Objective: "Consideration", FunnelStage: "MOF"},
		{CampaignID: "SNAP_C04", CampaignName: "AR Sofa Preview - TOF", Platform: "Snapchat", Objective: "Awareness", FunnelStage: "TOF"},
	}

	adSets := []AdSet{
		{AdSetID: "META_AS01", AdSetName: "US-25-45-Interest:InteriorDesign", CampaignID: "META_C01", Targeting: datatypes.JSONMap{"age": "25-45", "interest": "InteriorDesign"}},
		{AdSetID: "GOOG_AS02", AdSetName: `Keyword: "buy leather sofa"`, CampaignID: "GOOG_C02", Targeting: datatypes.JSONMap{"keyword": "buy leather sofa"}},
		{AdSetID: "TIKTOK_AS03", AdSetName: "US-18-24-Hashtag:CollegeLife", CampaignID: "TIKTOK_C03", Targeting: datatypes.JSONMap{"age": "18-24", "hashtag": "CollegeLife"}},
		{AdSetID: "SNAP_AS04", AdSetName: "US-16-22-LensUsers", CampaignID: "SNAP_C04", Targeting: datatypes.JSONMap{"age": "16-22"}},
	}

	testID := "TEST01"
	ads := []Ad{
		{AdID: "META_AD01", AdName: "Elegant Sofa Video Ad", AdSetID: "META_AS01", CreativeType: "Video", HeadlineText: "Modern Living, Timeless Comfort", BodyText: "Discover our new fall collection."},
		{AdID: "GOOG_AD02", AdName: "Leather Sofa Search Ad", AdSetID: "GOOG_AS02", CreativeType: "Image", HeadlineText: "Premium Leather Sofas", BodyText: "Shop now and get free delivery."},
		{AdID: "TIKTOK_AD03", AdName: "5-Second Room Makeover", AdSetID: "TIKTOK_AS03", CreativeType: "Video", HeadlineText: "Upgrade Your Space!", BodyText: "#dormdecor"},
		{AdID: "SNAP_AD04", AdName: "Place our couch in your room!", AdSetID: "SNAP_AS04", CreativeType: "AR Lens", HeadlineText: "Try Before You Buy", BodyText: "Use our AR lens to see it live."},
		{AdID: "META_AD05_A", AdName: "A/B Test Ad - Blue BG", AdSetID: "META_AS01", CreativeType: "Image", HeadlineText: "New Sofa, New Vibe.", BodyText: "Click to see our vibrant colors!", TestID: &testID},
		{AdID: "META_AD05_B", AdName: "A/B Test Ad - Green BG", AdSetID: "META_AS01", CreativeType: "Image", HeadlineText: "Your Perfect Sofa Awaits.", BodyText: "Find your perfect match today!", TestID: &testID},
	}

	flightStart := Day(time.Now().UTC()).AddDate(0, 0, -14)
	flightEnd := flightStart.AddDate(0, 0, 30)

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaigns).Error; err != nil {
			return err
		}
		if err := tx.Create(&adSets).Error; err != nil {
			return err
		}
		if err := tx.Create(&ads).Error; err != nil {
			return err
		}
		if err := CreateBudget(tx, &CampaignBudget{
			CampaignID:  "META_C01",
			StartDate:   flightStart,
			EndDate:     flightEnd,
			TotalBudget: 10000,
		}); err != nil {
			return err
		}
		if err := tx.Create(&ABTest{
			TestID:     testID,
			TestName:   "Blue vs Green Background",
			Hypothesis: "Test if a green background improves CTR over blue.",
			StartDate:  flightStart,
			EndDate:    flightEnd,
		}).Error; err != nil {
			return err
		}
		log.Printf("seeded %d sample campaigns with ads, budget and A/B test", len(campaigns))
		return nil
	})
}
