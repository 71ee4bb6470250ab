// Package frames samples rendered frames out of a menu VOB with an external
// media tool and groups them into menu pages by inter-frame pixel difference.
package frames
