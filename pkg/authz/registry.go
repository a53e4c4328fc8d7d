package authz

const (
	RoleAdmin     = "admin"
	RoleSteward   = "steward"
	RoleViewer    = "viewer"
	RoleAnonymous = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
)

const DomainGlobal = "global"

const (
	ObjectContactRecords    = "contacts.records"
	ObjectCleanupSweeps     = "cleanup.sweeps"
	ObjectGrantMatches      = "grants.matches"
	ObjectImpactReports     = "impact.reports"
	ObjectSignalReports     = "signals.reports"
	ObjectConnectorHandoffs = "connector.handoffs"
	ObjectPolicyRegistry    = "policy.registry"
	ObjectReviewClassifier  = "review.classifier"
)
