package server

import (
	"go.uber.org/zap"

	cleanupservices "github.com/act-community/steward/modules/cleanup/services"
	connectorservices "github.com/act-community/steward/modules/connector/services"
	"github.com/act-community/steward/modules/contacts/domain/ports"
	contactservices "github.com/act-community/steward/modules/contacts/services"
	"github.com/act-community/steward/pkg/fieldpolicy"
)

// engine bundles everything derived from the policy and rules config.
// It is immutable once built; config reloads construct a fresh engine
// and swap the pointer, in-flight requests keep the one they loaded.
type engine struct {
	policy     *fieldpolicy.Registry
	classifier *contactservices.Classifier
	guarded    *contactservices.GuardedStore
	cleaner    *cleanupservices.Cleaner
	connector  *connectorservices.Connector
}

func buildEngine(store ports.ContactStore, policyPath string, rulesPath string, sink contactservices.AuditSink, logger *zap.Logger) (*engine, error) {
	policy := fieldpolicy.Default()
	if policyPath != "" {
		p, err := fieldpolicy.Load(policyPath)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	reviewCfg := contactservices.DefaultReviewConfig()
	if rulesPath != "" {
		cfg, err := contactservices.LoadReviewConfig(rulesPath)
		if err != nil {
			return nil, err
		}
		reviewCfg = cfg
	}
	classifier, err := contactservices.NewClassifier(reviewCfg)
	if err != nil {
		return nil, err
	}

	guarded := contactservices.NewGuardedStore(store, policy, classifier,
		contactservices.WithLogger(logger),
		contactservices.WithAuditSink(sink),
	)

	return &engine{
		policy:     policy,
		classifier: classifier,
		guarded:    guarded,
		cleaner:    cleanupservices.NewCleaner(guarded, cleanupservices.WithLogger(logger)),
		connector:  connectorservices.NewDefaultConnector(guarded, connectorservices.WithLogger(logger)),
	}, nil
}
