// Package chart holds the figure model trepro reproduces and the renderer that
// turns a figure into PNG, JPEG, SVG or PDF bytes.
//
// A Figure is plain data: axes, legend flag and a list of series. It carries
// json, yaml and toml tags so the same value can be embedded in a framed file,
// read from a chart definition, or extracted back out. Renderer is the plain
// Saver; savefig wraps it to append provenance after the payload is written.
package chart
