// Package dsl is a fluent way to declare schema trees in Go code instead of
// declaration maps.
//
// Entry points
//   - Object(): an object builder; chain Field/Required/Definition/When and
//     finish with Build() (root node "#") or embed it as a field.
//   - String()/Email()/Date()/Bool()/Enum(...)/Ref(name)/Null(): leaf parts.
//   - OneOf/AnyOf/AllOf/Not on any part attach a composition.
//
// Example
//
//	root, err := dsl.Object().
//	    Field("name", dsl.String().MaxLength(64)).Required().
//	    Field("mail", dsl.Email()).Required().
//	    Field("plan", dsl.Enum("free", "pro")).
//	    Field("vat", dsl.String()).DependsOn("company").
//	    Definition("address", dsl.Object().Field("street", dsl.String()).Required()).
//	    Field("home", dsl.Ref("address")).
//	    Build()
//
// Invalid settings (a pattern that does not compile, a length bound on a
// boolean) are collected and reported by Build with the field path.
package dsl
