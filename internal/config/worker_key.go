package config

type WorkerKeyStruct struct {
	ExamGenerationQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ExamGenerationQueue: "exam_generation_queue",
}
