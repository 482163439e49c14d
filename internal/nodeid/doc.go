// internal/nodeid/doc.go

/*
Package nodeid is the single authority on node identifiers, which take the
canonical form `kind.type.name`.

The kind is `step` or `resource`. The type names the runner or asset
definition, and the name is the instance label from the flow file, so a
step declared as `step "exec" "install_deps"` gets the identifier
`step.exec.install_deps`.

Everything that prints, parses, or compares an identifier goes through this
package; nothing else splits identifier strings by hand.
*/
package nodeid
