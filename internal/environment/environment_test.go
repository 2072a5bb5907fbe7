package environment

import "testing"

func TestSuppressesAgilityDuringStorm(t *testing.T) {
	env := New(Config{Seed: 1})
	if env.SuppressesAgility() {
		t.Fatal("fresh environment should start clear, not suppressing agility")
	}
	env.state.Weather.Kind = WeatherStorm
	if !env.SuppressesAgility() {
		t.Fatal("storm weather should suppress agility")
	}
	env.state.Weather.Kind = WeatherRain
	if env.SuppressesAgility() {
		t.Fatal("rain alone should not suppress agility")
	}
}
