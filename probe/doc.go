// Package probe provides the model probe capability used by failure
// recovery: a one-shot check that a named model backend is reachable and
// correctly configured.
//
// # Capability Table
//
// Probes are looked up by model name in a Table. Each entry is a
// Capability; unknown names resolve to Unsupported, which always fails
// without constructing any client. Adding a model means registering an
// entry, not adding a branch:
//
//	table := probe.NewTable().
//	    Register("gemini", probe.FromFactory(probe.NewGeminiFactory(cfg)))
//
//	ok, err := table.Resolve(modelName).Probe(ctx, sessionID)
//
// # Probers
//
// FromFactory wraps a Factory: every Probe call builds a fresh Prober scoped
// to the session, calls TestModel once, and closes the prober regardless of
// the outcome. LLMProber implements Prober on top of any langchaingo
// llms.Model.
package probe
