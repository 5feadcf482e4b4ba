package risk

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type (
	// TreeNode is one node of a trained decision tree. Interior nodes route on
	// `feature <= threshold`; leaves carry a class probability distribution.
	TreeNode struct {
		Feature   int       `json:"feature"`
		Threshold float64   `json:"threshold"`
		Left      *TreeNode `json:"left,omitempty"`
		Right     *TreeNode `json:"right,omitempty"`
		Dist      []float64 `json:"dist,omitempty"`
	}

	// Forest is a random-forest Classifier: class probabilities are the mean
	// of the per-tree leaf distributions; the predicted class is the argmax.
	Forest struct {
		Trees []*TreeNode `json:"trees"`
	}
)

var _ Classifier = (*Forest)(nil)

func (n *TreeNode) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

func (n *TreeNode) classify(fv FeatureVector) []float64 {
	node := n
	for !node.isLeaf() {
		if fv[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Dist
}

func (f *Forest) Predict(fv FeatureVector) (int, [NumClasses]float64, error) {
	var probs [NumClasses]float64
	if len(f.Trees) == 0 {
		return 0, probs, ErrModelUnavailable
	}

	for _, tree := range f.Trees {
		dist := tree.classify(fv)
		for c := 0; c < NumClasses && c < len(dist); c++ {
			probs[c] += dist[c]
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}

	var class int
	for c, p := range probs {
		if p > probs[class] {
			class = c
		}
	}
	return class, probs, nil
}

// LoadForest reads a JSON model artifact from path.
// A missing artifact is reported as ErrModelUnavailable.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelUnavailable
		}
		return nil, errors.Wrap(err, "reading model artifact")
	}

	forest := new(Forest)
	if err = json.Unmarshal(data, forest); err != nil {
		return nil, errors.Wrap(err, "decoding model artifact")
	}
	if len(forest.Trees) == 0 {
		return nil, ErrModelUnavailable
	}
	return forest, nil
}

// Save writes the forest as a JSON artifact at path, creating parent dirs.
func (f *Forest) Save(path string) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encoding model artifact")
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating model dir")
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing model artifact")
	}
	return nil
}
