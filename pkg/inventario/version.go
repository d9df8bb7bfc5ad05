// Package inventario holds build-level facts about the module.
package inventario

// Version is the release version printed by "inventario version".
const Version = "0.1.0"
