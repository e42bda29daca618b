// Package schemaforge provides:
//
// - A schema node model (string, email, date, boolean, enum, object, reference, null)
// - Construction of node trees from declarative maps (see loader/ for YAML and JSON)
// - Layered merging of schema trees (add / replace / remove strategies)
// - Validation of arbitrary input documents into an ordered list of Issues
// - Export of trees back into the declarative shape
//
// Design policy:
// - Keep the node model and engines in the root package; loading, building,
//   connectors and the CLI live under loader/, builder/, connector/ and cmd/schemaforge.
// - Validation never fails with a Go error: problems are reported as Issues.
// - External validators and schema sources are reached through a Connector;
//   their failures never abort a validation pass.
//
// Typical usage:
//
//	root, err := schemaforge.Build(decl)
//	issues := root.Validate(ctx, input, conn)
//	for _, it := range issues {
//		fmt.Println(it.Path, it.Code, it.Message)
//	}
package schemaforge
