/*
Package description declares diagram descriptions: which node and edge views a diagram
shows for which domain elements, and which tools its palettes offer.

A Description is authored once (in Go through pkg/dsl, or as YAML through the
compiler), validated offline by pkg/validator, then compiled into a Registry. The
Registry is the value the renderer and the edit operations work with: it resolves the
names reused from the shared group, indexes tools and caches the CEL programs of
candidate filters.

Filters see two variables, both maps with the keys id, type, name, parent and attrs:

	self.type == "Message" && self.attrs.messageSort == "asynchCall"
	self.name != container.name
*/
package description
