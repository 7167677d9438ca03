// Package sonai embeds the sonai devlog AI-detection pipeline in a Go program.
//
// A Predictor extracts stylistic metrics from a text, maps them into the feature
// space of the loaded two-centroid model and splits the text between the AI and
// human clusters.
//
//	p, _ := sonai.New(ctx, sonai.WithModelFiles("model.kmeans", "model.ai.cluster"))
//	defer p.Close()
//	res, _ := p.Predict(ctx, "Day 3: not just a tool, a seamless experience 🚀")
//	fmt.Println(res.ChanceAI, res.LikelyAI)
//
// Models can also be read from Redis or Valkey, where the sonai service stores
// replacements made through its API:
//
//	p, _ := sonai.New(ctx, sonai.WithRedis("localhost:6379", ""), sonai.WithCache(time.Hour))
package sonai
