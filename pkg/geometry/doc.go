// Package geometry derives the physical layout of a keyboard case from its
// configuration: key frames, critical points, the boundary loop, wall
// points, board and screw placement, the connector cutout and the elevation
// planes.
//
// Quantities depend on each other in a fixed order:
//
//	key frames -> critical points -> boundary loop -> wall points
//	  -> board indices, connector origin -> screw indices -> positions
//
// with the elevation planes feeding the wall points of the tilt and block
// shells. Each quantity is computed at most once per Geometry.
//
// Shell variants change a handful of derivations (the up axis, the bottom
// and floor planes, wall construction, independent screws). Everything a
// variant does not change is delegated to the basic shell.
package geometry
