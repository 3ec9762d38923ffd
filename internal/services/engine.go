package services

// Engine bundles the wired quality services. The core is a library-style
// engine; a host embeds Engine and drives it through its own transport.
type Engine struct {
	Identity        IdentityService
	Signatures      SignatureService
	Samples         SampleService
	Analyses        AnalysisService
	NonConformities NonConformityService
	Orchestrator    SamplingOrchestrator
	Gatekeeper      GatekeeperService
}
