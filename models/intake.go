package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Intake form lifecycle. Only draft -> submitted is client-triggered;
// the later statuses are set by an operator.
const (
	IntakeStatusDraft      = "draft"
	IntakeStatusSubmitted  = "submitted"
	IntakeStatusInProgress = "in_progress"
	IntakeStatusCompleted  = "completed"
	IntakeStatusCancelled  = "cancelled"
)

const (
	SignatureTypeTyped = "typed"
	SignatureTypeDrawn = "drawn"
)

// ContactSection holds the step 1 fields.
type ContactSection struct {
	FirstName           string `json:"contactFirstName"`
	LastName            string `json:"contactLastName"`
	Email               string `json:"contactEmail" gorm:"index"`
	Phone               string `json:"contactPhone"`
	BusinessName        string `json:"businessName"`
	BusinessAddress     string `json:"businessAddress"`
	BusinessCity        string `json:"businessCity"`
	BusinessState       string `json:"businessState"`
	BusinessZip         string `json:"businessZip"`
	BusinessCountry     string `json:"businessCountry"`
	Industry            string `json:"industry"`
	BusinessDescription string `json:"businessDescription"`
	YearsInBusiness     string `json:"yearsInBusiness"`
}

// GoalsSection holds the step 2 fields.
type GoalsSection struct {
	WebsiteGoals        datatypes.JSONSlice[string] `json:"websiteGoals"`
	PrimaryPurpose      string                      `json:"primaryPurpose"`
	WhyNewWebsite       string                      `json:"whyNewWebsite"`
	CurrentWebsiteURL   string                      `json:"currentWebsiteUrl"`
	CurrentChallenges   string                      `json:"currentChallenges"`
	TargetAudience      string                      `json:"targetAudience"`
	UniqueSellingPoints string                      `json:"uniqueSellingPoints"`
}

// FeaturesSection holds the step 3 fields, including the e-commerce and
// membership sub-groups that only apply when the matching flag is set.
type FeaturesSection struct {
	Features           datatypes.JSONSlice[string] `json:"features"`
	NeedsBlog          bool                        `json:"needsBlog"`
	NeedsContactForm   bool                        `json:"needsContactForm"`
	NeedsGallery       bool                        `json:"needsGallery"`
	NeedsSocialMedia   bool                        `json:"needsSocialMedia"`
	NeedsCalendar      bool                        `json:"needsCalendar"`
	NeedsSearch        bool                        `json:"needsSearch"`
	NeedsNewsletter    bool                        `json:"needsNewsletter"`
	NeedsLiveChat      bool                        `json:"needsLiveChat"`
	NeedsAnalytics     bool                        `json:"needsAnalytics"`
	NeedsMultiLanguage bool                        `json:"needsMultiLanguage"`
	OtherFeatures      string                      `json:"otherFeatures"`

	NeedsEcommerce    bool                        `json:"needsEcommerce"`
	ProductCount      string                      `json:"productCount"`
	ProductTypes      string                      `json:"productTypes"`
	PaymentGateways   datatypes.JSONSlice[string] `json:"paymentGateways"`
	NeedsInventory    bool                        `json:"needsInventory"`
	NeedsShipping     bool                        `json:"needsShipping"`
	ShippingRegions   string                      `json:"shippingRegions"`
	TaxRequirements   string                      `json:"taxRequirements"`
	EcommercePlatform string                      `json:"ecommercePlatform"`

	NeedsMembership   bool   `json:"needsMembership"`
	MembershipContent string `json:"membershipContent"`
	MembershipPaid    bool   `json:"membershipPaid"`
	MembershipTiers   string `json:"membershipTiers"`
	MembershipPayment string `json:"membershipPayment"`
}

// DesignSection holds the step 4 fields.
type DesignSection struct {
	HasExistingBranding bool   `json:"hasExistingBranding"`
	BrandColors         string `json:"brandColors"`
	BrandFonts          string `json:"brandFonts"`
	DesignStyle         string `json:"designStyle"`
	WebsiteExamples     string `json:"websiteExamples"`
	WebsiteExampleNotes string `json:"websiteExamplesNotes"`
	AvoidDesignElements string `json:"avoidDesignElements"`
}

// ContentSection holds the step 5 fields.
type ContentSection struct {
	ContentProvider       string `json:"contentProvider"`
	HasExistingContent    bool   `json:"hasExistingContent"`
	NeedsContentMigration bool   `json:"needsContentMigration"`
	NeedsPhotography      bool   `json:"needsPhotography"`
	NeedsStockImages      bool   `json:"needsStockImages"`
	EstimatedPages        string `json:"estimatedPages"`
}

// TechnicalSection holds the step 6 fields.
type TechnicalSection struct {
	HasDomain           bool   `json:"hasDomain"`
	DomainName          string `json:"domainName"`
	NeedsDomainPurchase bool   `json:"needsDomainPurchase"`
	PreferredDomain     string `json:"preferredDomain"`
	HasHosting          bool   `json:"hasHosting"`
	HostingProvider     string `json:"hostingProvider"`
	NeedsHostingSetup   bool   `json:"needsHostingSetup"`
	NeedsDomainTransfer bool   `json:"needsDomainTransfer"`
	TechnicalNotes      string `json:"technicalNotes"`
}

// TimelineSection holds the step 7 fields.
type TimelineSection struct {
	TargetLaunchDate   string `json:"targetLaunchDate"`
	IsFlexibleTimeline bool   `json:"isFlexibleTimeline"`
	BudgetRange        string `json:"budgetRange"`
	BudgetNotes        string `json:"budgetNotes"`
}

// CompetitorsSection holds the step 8 fields.
type CompetitorsSection struct {
	Competitors          datatypes.JSONSlice[string] `json:"competitors"`
	CompetitorNotes      string                      `json:"competitorNotes"`
	IndustryInspirations datatypes.JSONSlice[string] `json:"industryInspirations"`
}

// ServicesSection holds the step 9 fields.
type ServicesSection struct {
	NeedsMaintenance   bool                        `json:"needsMaintenance"`
	MaintenanceLevel   string                      `json:"maintenanceLevel"`
	MaintenanceOptions datatypes.JSONSlice[string] `json:"maintenanceOptions"`
	NeedsTraining      bool                        `json:"needsTraining"`
	OngoingNotes       string                      `json:"ongoingNotes"`
	SeoPackage         string                      `json:"seoPackage"`
	TargetKeywords     string                      `json:"targetKeywords"`
	AdditionalServices datatypes.JSONSlice[string] `json:"additionalServices"`
}

// AgreementSection holds the step 10 fields: final notes, consent flags
// and the signature.
type AgreementSection struct {
	AdditionalComments  string `json:"additionalComments"`
	SpecialRequirements string `json:"specialRequirements"`
	AccessibilityNeeds  string `json:"accessibilityNeeds"`
	AgreedToTerms       bool   `json:"agreedToTerms"`
	AgreedToPrivacy     bool   `json:"agreedToPrivacy"`
	SignatureType       string `json:"signatureType"`
	SignatureData       string `json:"signatureData"`
	SignedName          string `json:"signedName"`
	WantsConsultation   bool   `json:"wantsConsultation"`
}

// IntakeForm is the questionnaire record through both lifecycle phases:
// a mutable draft addressed by its resume token, then an immutable
// submission once the client signs off.
type IntakeForm struct {
	gorm.Model
	ClientID *uint
	Client   *Client

	// ResumeToken is a bearer capability, not a lookup id: whoever holds
	// it can read and mutate the draft. Nullable so submitted-without-draft
	// records carry no token at all.
	ResumeToken *string `gorm:"uniqueIndex"`

	Status         string `gorm:"not null;default:'draft';index"`
	CurrentStep    int    `gorm:"not null;default:1"`
	CompletedSteps datatypes.JSONSlice[int]

	Contact     ContactSection     `gorm:"embedded;embeddedPrefix:contact_"`
	Goals       GoalsSection       `gorm:"embedded;embeddedPrefix:goals_"`
	Features    FeaturesSection    `gorm:"embedded;embeddedPrefix:features_"`
	Design      DesignSection      `gorm:"embedded;embeddedPrefix:design_"`
	Content     ContentSection     `gorm:"embedded;embeddedPrefix:content_"`
	Technical   TechnicalSection   `gorm:"embedded;embeddedPrefix:technical_"`
	Timeline    TimelineSection    `gorm:"embedded;embeddedPrefix:timeline_"`
	Competitors CompetitorsSection `gorm:"embedded;embeddedPrefix:competitors_"`
	Services    ServicesSection    `gorm:"embedded;embeddedPrefix:services_"`
	Agreement   AgreementSection   `gorm:"embedded;embeddedPrefix:agreement_"`

	EstimatedQuote float64
	LastSavedAt    *time.Time
	SubmittedAt    *time.Time
	SignedAt       *time.Time
}

// IsDraft reports whether the record can still be mutated by its token holder.
func (f *IntakeForm) IsDraft() bool {
	return f.Status == IntakeStatusDraft
}

// HasCompletedStep reports whether the given step was ever reached.
func (f *IntakeForm) HasCompletedStep(step int) bool {
	for _, s := range f.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// FurthestStep returns the highest step the client has reached.
func (f *IntakeForm) FurthestStep() int {
	furthest := f.CurrentStep
	for _, s := range f.CompletedSteps {
		if s > furthest {
			furthest = s
		}
	}
	return furthest
}
