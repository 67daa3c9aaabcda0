package application

// Analytics event names.
const (
	EventSoftCreated            = "soft_eligibility.session.created"
	EventSoftSubmit             = "soft_eligibility.session.submit"
	EventSoftUpdated            = "soft_eligibility.session.updated"
	EventSoftCompleteEligible   = "soft_eligibility.session.complete.eligible"
	EventSoftCompleteIneligible = "soft_eligibility.session.complete.ineligible"

	EventHardCreated              = "hard_eligibility.session.created"
	EventHardSubmit               = "hard_eligibility.session.submit"
	EventHardUpdated              = "hard_eligibility.session.updated"
	EventHardPolicy               = "hard_eligibility.session.policy"
	EventHardCompleteEligible     = "hard_eligibility.session.complete.eligible"
	EventHardCompleteIneligible   = "hard_eligibility.session.complete.ineligible"
	EventHardCompleteOutOfNetwork = "hard_eligibility.session.complete.out_of_network"
	EventHardOptimisticError      = "hard_eligibility.session.optimistic_soft_check.error"
)
