package samples

// BuiltinWaves are the chip waves every song can select, in index order.
var BuiltinWaves = []string{
	"rounded", "triangle", "square", "1/4 pulse", "1/8 pulse", "sawtooth",
	"double saw", "double pulse", "spiky", "sine", "flute", "harp",
	"sharp clarinet", "soft clarinet", "alto sax", "bassoon", "trumpet",
	"electric guitar", "organ", "pan flute", "glitch", "trapezoid",

	"modbox 10% pulse", "modbox sunsoft bass", "modbox loud pulse", "modbox sax",
	"modbox guitar", "modbox sine", "modbox atari bass", "modbox atari pulse",
	"modbox 1% pulse", "modbox curved sawtooth", "modbox viola", "modbox brass",
	"modbox acoustic bass", "modbox lyre", "modbox ramp pulse", "modbox piccolo",
	"modbox squaretooth", "modbox flatline", "modbox pnryshk a (u5)",
	"modbox pnryshk b (riff)",

	"sandbox shrill lute", "sandbox bassoon", "sandbox shrill bass",
	"sandbox nes pulse", "sandbox saw bass", "sandbox euphonium",
	"sandbox shrill pulse", "sandbox r-sawtooth", "sandbox recorder",
	"sandbox narrow saw", "sandbox deep square", "sandbox ring pulse",
	"sandbox double sine", "sandbox contrabass", "sandbox double bass",

	"haileybox test1", "brucebox isolated spiky", "nerdbox unnamed 1",
	"nerdbox unnamed 2", "zefbox semi-square", "zefbox deep square",
	"zefbox squaretal", "zefbox saw wide", "zefbox saw narrow",
	"zefbox deep sawtooth", "zefbox sawtal", "zefbox pulse",
	"zefbox triple pulse", "zefbox high pulse", "zefbox deep pulse",
	"wackybox guitar string", "wackybox intense", "wackybox buzz wave",
	"todbox 1/3 pulse", "todbox 1/4 pulse", "todbox 1/6 pulse",
	"todbox 1/8 pulse", "todbox 1/12 pulse", "todbox 1/16 pulse",
}

// LegacyWaveIndex maps the wave numbering of the oldest links onto
// BuiltinWaves.
var LegacyWaveIndex = []int{1, 2, 3, 4, 5, 6, 7, 8, 0}
