// Package trepro saves charts with an embedded reproduction record and loads
// them back.
//
// Call PatchSave once at startup to route every SaveFigure through the
// metadata interceptor, or call SaveAndEmbed directly. Files whose extension
// is in the embed set (PNG, PDF and JPEG by default) end with a framed JSON
// record holding the chart definition, the codec version and provenance
// gathered from git and the host. LoadSavedFigure reverses the process.
package trepro
