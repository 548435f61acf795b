package zorsh

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func BenchmarkSerializeBound(b *testing.B) {
	s := boundPlayer()
	p := bob()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Serialize(p)
	}
}

func BenchmarkSerializeRecord(b *testing.B) {
	rec, err := playerSchema.Deserialize(unhex(b, bobPlayer))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = playerSchema.Serialize(rec)
	}
}

func BenchmarkDeserializeBound(b *testing.B) {
	s := boundPlayer()
	data := unhex(b, bobPlayer)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Deserialize(data)
	}
}

func BenchmarkDeserializeUnsafeStrings(b *testing.B) {
	s := boundPlayer().WithOptions(Options{UnsafeStrings: true})
	data := unhex(b, bobPlayer)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Deserialize(data)
	}
}

func BenchmarkPackedVec(b *testing.B) {
	s := Vec(F64())
	v := make([]float64, 1024)
	for i := range v {
		v[i] = float64(i) / 3
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Serialize(v)
	}
}

func BenchmarkGameStateDecode(b *testing.B) {
	data := unhex(b, complexGameState)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = gameStateSchema.Deserialize(data)
	}
}

func BenchmarkYamlSerialize(b *testing.B) {
	p := bob()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = yaml.Marshal(p)
	}
}
