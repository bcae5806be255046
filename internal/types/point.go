// README: Common geographic value object used across modules.
package types

type Point struct {
	Lat float64
	Lon float64
}
