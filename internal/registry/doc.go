// Package registry provides the static icon registry used by the views.
//
// Icons are SVG files embedded in the binary and listed in
// icons/manifest.json:
//
//	{
//	  "version": "2.3.1",
//	  "icons": {
//	    "Location": {"file": "location.svg"},
//	    "Link": {"file": "link.svg", "aliases": ["Website"]}
//	  }
//	}
//
// The set is fixed at compile time. There is no runtime discovery: views ask
// for icons by name and an unknown name renders an empty placeholder.
//
// # Usage
//
//	icons := registry.Default()
//	icons.Icon("Location") // <i class="el-icon" data-icon="Location"><svg ...></i>
package registry
