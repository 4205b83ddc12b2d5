package models

// EstimateQuote prices a project from the questionnaire answers. The
// numbers mirror the agency's published pricing sheet; the result is the
// basis for the 50% deposit.
func EstimateQuote(f *IntakeForm) float64 {
	base := 2500.0

	if f.Features.NeedsEcommerce {
		base += 2000
		switch f.Features.ProductCount {
		case "51-100":
			base += 500
		case "101-500":
			base += 1000
		case "500+":
			base += 2000
		}
	}

	if f.Features.NeedsMembership {
		base += 1500
		if f.Features.MembershipPaid {
			base += 500
		}
	}

	if f.Features.NeedsBlog {
		base += 300
	}
	if f.Features.NeedsCalendar {
		base += 400
	}
	if f.Features.NeedsMultiLanguage {
		base += 800
	}
	if f.Features.NeedsLiveChat {
		base += 200
	}

	if f.Content.ContentProvider == "need_copywriting" {
		base += 1000
	}
	if f.Content.NeedsPhotography {
		base += 500
	}

	if f.Technical.NeedsDomainPurchase {
		base += 20
	}
	if f.Technical.NeedsHostingSetup {
		base += 100
	}

	if f.Services.NeedsMaintenance {
		switch f.Services.MaintenanceLevel {
		case "basic":
			base += 50 * 12
		case "standard":
			base += 100 * 12
		case "premium":
			base += 200 * 12
		}
	}

	return base
}
